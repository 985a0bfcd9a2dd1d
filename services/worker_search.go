package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/utils"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultSearchLimit = 20
	DefaultSearchSort  = "rating"
	profileReviewLimit = 10
	likeEscapeClause   = ` ESCAPE '\'`
	otherSkill         = "Other"
	maxSearchOffset    = math.MaxInt32
)

var (
	ErrWorkerNotFound = errors.New("worker not found")
	ErrNotAWorker     = errors.New("user is not a worker")
)

// WorkerSearchParams are the parsed filters of a worker search. Nil pointers
// and empty strings mean "not supplied".
type WorkerSearchParams struct {
	Search       string
	Skill        string
	Availability string
	MinPrice     *float64
	MaxPrice     *float64
	MinRating    *float64
	Reference    *utils.GeoPoint
	MaxDistance  float64
	Sort         string
	Limit        int
	Page         int
}

func (p *WorkerSearchParams) normalize() {
	if p.Limit < 1 {
		p.Limit = DefaultSearchLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Sort == "" {
		p.Sort = DefaultSearchSort
	}
	if p.MaxDistance <= 0 {
		p.MaxDistance = utils.DefaultRadiusKm
	}
}

// offset is (page-1)*limit, clamped to maxSearchOffset so huge pages cannot overflow
func (p WorkerSearchParams) offset() int {
	if p.Page <= 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > maxSearchOffset/p.Limit {
		return maxSearchOffset
	}
	return (p.Page - 1) * p.Limit
}

// WorkerStats are the derived per-worker figures; they are never persisted
type WorkerStats struct {
	Rating            float64
	ReviewCount       int64
	CompletedBookings int64
}

// WorkerResult is one entry of a worker search response
type WorkerResult struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	AvatarURL         string    `json:"avatarUrl"`
	Bio               string    `json:"bio"`
	Skill             string    `json:"skill"`
	Price             float64   `json:"price"`
	Availability      string    `json:"availability"`
	Rating            float64   `json:"rating"`
	ReviewCount       int64     `json:"reviewCount"`
	CompletedBookings int64     `json:"completedBookings"`
	JoinedAt          time.Time `json:"joinedAt"`
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	Address           string    `json:"address"`
	City              string    `json:"city"`
	Pincode           string    `json:"pincode"`
	DistanceKm        *float64  `json:"distanceKm"`
}

func (w *WorkerResult) Coordinates() (*float64, *float64) { return w.Latitude, w.Longitude }
func (w *WorkerResult) SetDistance(km *float64)            { w.DistanceKm = km }

func newWorkerResult(u *models.User, stats WorkerStats) *WorkerResult {
	return &WorkerResult{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Phone:             u.Phone,
		AvatarURL:         u.AvatarURL,
		Bio:               u.Bio,
		Skill:             u.Skill,
		Price:             u.Price,
		Availability:      u.Availability,
		Rating:            stats.Rating,
		ReviewCount:       stats.ReviewCount,
		CompletedBookings: stats.CompletedBookings,
		JoinedAt:          u.CreatedAt,
		Latitude:          u.Latitude,
		Longitude:         u.Longitude,
		Address:           u.Address,
		City:              u.City,
		Pincode:           u.Pincode,
	}
}

// SearchLocation echoes the reference point of a distance-bounded search
type SearchLocation struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	MaxDistance float64 `json:"maxDistance"`
}

// WorkerSearchResult is the body of GET /workers
type WorkerSearchResult struct {
	Workers    []*WorkerResult  `json:"workers"`
	Pagination utils.Pagination `json:"pagination"`
	Location   *SearchLocation  `json:"location"`
}

// WorkerSearchService answers the public worker discovery endpoints
type WorkerSearchService struct {
	db *gorm.DB
}

func NewWorkerSearchService(db *gorm.DB) *WorkerSearchService {
	return &WorkerSearchService{db: db}
}

// BuildQuery assembles the candidate query: role, text and price filters,
// database ordering and the over-fetch window
func (s *WorkerSearchService) BuildQuery(ctx context.Context, p WorkerSearchParams) *gorm.DB {
	p.normalize()

	q := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleWorker)

	if p.Search != "" {
		pattern := utils.ContainsPattern(p.Search)
		q = q.Where("(LOWER(name) LIKE ?"+likeEscapeClause+
			" OR LOWER(skill) LIKE ?"+likeEscapeClause+
			" OR LOWER(bio) LIKE ?"+likeEscapeClause+")", pattern, pattern, pattern)
	}
	if p.Skill != "" {
		q = q.Where("LOWER(skill) LIKE ?"+likeEscapeClause, utils.ContainsPattern(p.Skill))
	}
	if p.MinPrice != nil {
		q = q.Where("price >= ?", *p.MinPrice)
	}
	if p.MaxPrice != nil {
		q = q.Where("price <= ?", *p.MaxPrice)
	}
	if p.Availability != "" {
		q = q.Where("LOWER(availability) LIKE ?"+likeEscapeClause, utils.ContainsPattern(p.Availability))
	}

	switch p.Sort {
	case "price":
		q = q.Order("price ASC")
	case "price-desc":
		q = q.Order("price DESC")
	default:
		// newest, rating and distance; the latter two are re-sorted after enrichment
		q = q.Order("created_at DESC")
	}
	q = q.Order("id DESC")

	return q.Offset(p.offset()).Limit(2 * p.Limit)
}

// Stats computes the rating summary and completed booking count of one worker
func (s *WorkerSearchService) Stats(ctx context.Context, workerID uint) (WorkerStats, error) {
	db := s.db.WithContext(ctx)

	var agg struct {
		Avg   float64
		Count int64
	}
	if err := db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("worker_id = ? AND status = ?", workerID, models.ReviewStatusActive).
		Scan(&agg).Error; err != nil {
		return WorkerStats{}, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	var completed int64
	if err := db.Model(&models.Booking{}).
		Where("worker_id = ? AND status = ?", workerID, models.BookingStatusCompleted).
		Count(&completed).Error; err != nil {
		return WorkerStats{}, fmt.Errorf("failed to count bookings: %w", err)
	}

	return WorkerStats{
		Rating:            utils.RoundTo1(agg.Avg),
		ReviewCount:       agg.Count,
		CompletedBookings: completed,
	}, nil
}

// Enrich computes stats for every worker concurrently. The first failure
// cancels the remaining reads and is returned.
func (s *WorkerSearchService) Enrich(ctx context.Context, workers []models.User) ([]*WorkerResult, error) {
	results := make([]*WorkerResult, len(workers))

	g, gctx := errgroup.WithContext(ctx)
	for i := range workers {
		g.Go(func() error {
			stats, err := s.Stats(gctx, workers[i].ID)
			if err != nil {
				return err
			}
			results[i] = newWorkerResult(&workers[i], stats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Search runs the full pipeline: fetch, enrich, distance filter, rating
// filter, re-sort and truncate. Pagination.Total counts the returned page.
func (s *WorkerSearchService) Search(ctx context.Context, p WorkerSearchParams) (*WorkerSearchResult, error) {
	p.normalize()

	var candidates []models.User
	if err := s.BuildQuery(ctx, p).Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch workers: %w", err)
	}

	workers, err := s.Enrich(ctx, candidates)
	if err != nil {
		return nil, err
	}

	workers = utils.FilterByDistance(workers, p.Reference, p.MaxDistance)

	if p.MinRating != nil {
		kept := workers[:0]
		for _, w := range workers {
			if w.Rating >= *p.MinRating {
				kept = append(kept, w)
			}
		}
		workers = kept
	}

	switch {
	case p.Sort == "rating":
		sort.SliceStable(workers, func(i, j int) bool { return workers[i].Rating > workers[j].Rating })
	case p.Sort == "distance" && p.Reference != nil:
		sort.SliceStable(workers, func(i, j int) bool { return *workers[i].DistanceKm < *workers[j].DistanceKm })
	}

	if len(workers) > p.Limit {
		workers = workers[:p.Limit]
	}

	result := &WorkerSearchResult{
		Workers:    workers,
		Pagination: utils.NewPagination(p.Page, p.Limit, int64(len(workers))),
	}
	if p.Reference != nil {
		result.Location = &SearchLocation{
			Latitude:    p.Reference.Latitude,
			Longitude:   p.Reference.Longitude,
			MaxDistance: p.MaxDistance,
		}
	}
	return result, nil
}

// NearbyService is one worker counted by NearbyCount
type NearbyService struct {
	ID         uint     `json:"id"`
	Skill      string   `json:"skill"`
	DistanceKm *float64 `json:"distanceKm"`
}

// NearbyCountResult is the body of GET /workers/nearby/count
type NearbyCountResult struct {
	TotalServices int              `json:"totalServices"`
	WithinRadius  float64          `json:"withinRadius"`
	Location      utils.GeoPoint   `json:"location"`
	BySkill       map[string]int   `json:"bySkill"`
	Services      []*NearbyService `json:"services"`
}

type nearbyWorker struct {
	ID        uint
	Skill     string
	Latitude  *float64
	Longitude *float64
	distance  *float64
}

func (w *nearbyWorker) Coordinates() (*float64, *float64) { return w.Latitude, w.Longitude }
func (w *nearbyWorker) SetDistance(km *float64)            { w.distance = km }

// NearbyCount counts located workers with a skill within radiusKm of center, grouped by skill
func (s *WorkerSearchService) NearbyCount(ctx context.Context, center utils.GeoPoint, radiusKm float64) (*NearbyCountResult, error) {
	if radiusKm <= 0 {
		radiusKm = utils.DefaultRadiusKm
	}

	var rows []*nearbyWorker
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("id, skill, latitude, longitude").
		Where("role = ? AND skill <> '' AND latitude IS NOT NULL AND longitude IS NOT NULL", models.RoleWorker).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch located workers: %w", err)
	}

	nearby := utils.FilterByDistance(rows, &center, radiusKm)

	result := &NearbyCountResult{
		TotalServices: len(nearby),
		WithinRadius:  radiusKm,
		Location:      center,
		BySkill:       make(map[string]int),
		Services:      make([]*NearbyService, 0, len(nearby)),
	}
	for _, w := range nearby {
		skill := w.Skill
		if skill == "" {
			skill = otherSkill
		}
		result.BySkill[skill]++
		result.Services = append(result.Services, &NearbyService{ID: w.ID, Skill: w.Skill, DistanceKm: w.distance})
	}
	return result, nil
}

// BookingStats summarises a worker's bookings by status
type BookingStats struct {
	TotalBookings     int64 `json:"totalBookings"`
	CompletedBookings int64 `json:"completedBookings"`
	PendingBookings   int64 `json:"pendingBookings"`
}

// WorkerProfile is the body of GET /workers/:id
type WorkerProfile struct {
	ID                uint            `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone"`
	AvatarURL         string          `json:"avatarUrl"`
	Bio               string          `json:"bio"`
	Skill             string          `json:"skill"`
	Price             float64         `json:"price"`
	Availability      string          `json:"availability"`
	Address           string          `json:"address"`
	City              string          `json:"city"`
	Pincode           string          `json:"pincode"`
	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
	JoinedAt          time.Time       `json:"joinedAt"`
	Rating            float64         `json:"rating"`
	ReviewCount       int64           `json:"reviewCount"`
	RatingCounts      map[int]int64   `json:"ratingCounts"`
	Reviews           []models.Review `json:"reviews"`
	Stats             BookingStats    `json:"stats"`
	CompletedBookings int64           `json:"completedBookings"`
}

// RatingSummary returns the rounded average and per-star counts of a worker's active reviews
func RatingSummary(ctx context.Context, db *gorm.DB, workerID uint) (avg float64, total int64, counts map[int]int64, err error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	if err := db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("worker_id = ? AND status = ?", workerID, models.ReviewStatusActive).
		Group("rating").
		Scan(&rows).Error; err != nil {
		return 0, 0, nil, fmt.Errorf("failed to summarise ratings: %w", err)
	}

	counts = map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	var sum int64
	for _, r := range rows {
		counts[r.Rating] += r.Count
		sum += int64(r.Rating) * r.Count
		total += r.Count
	}
	if total > 0 {
		avg = utils.RoundTo1(float64(sum) / float64(total))
	}
	return avg, total, counts, nil
}

// Profile loads a worker with rating breakdown, latest reviews and booking stats
func (s *WorkerSearchService) Profile(ctx context.Context, id uint) (*WorkerProfile, error) {
	db := s.db.WithContext(ctx)

	var worker models.User
	if err := db.First(&worker, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("failed to load worker: %w", err)
	}
	if !worker.IsWorker() {
		return nil, ErrNotAWorker
	}

	avg, total, counts, err := RatingSummary(ctx, s.db, worker.ID)
	if err != nil {
		return nil, err
	}

	var reviews []models.Review
	if err := db.Preload("Customer").
		Where("worker_id = ? AND status = ?", worker.ID, models.ReviewStatusActive).
		Order("created_at DESC").Order("id DESC").
		Limit(profileReviewLimit).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Where("worker_id = ?", worker.ID).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}

	var stats BookingStats
	for _, row := range byStatus {
		stats.TotalBookings += row.Count
		switch row.Status {
		case models.BookingStatusCompleted:
			stats.CompletedBookings = row.Count
		case models.BookingStatusPending:
			stats.PendingBookings = row.Count
		}
	}

	return &WorkerProfile{
		ID:                worker.ID,
		Name:              worker.Name,
		Email:             worker.Email,
		Phone:             worker.Phone,
		AvatarURL:         worker.AvatarURL,
		Bio:               worker.Bio,
		Skill:             worker.Skill,
		Price:             worker.Price,
		Availability:      worker.Availability,
		Address:           worker.Address,
		City:              worker.City,
		Pincode:           worker.Pincode,
		Latitude:          worker.Latitude,
		Longitude:         worker.Longitude,
		JoinedAt:          worker.CreatedAt,
		Rating:            avg,
		ReviewCount:       total,
		RatingCounts:      counts,
		Reviews:           reviews,
		Stats:             stats,
		CompletedBookings: stats.CompletedBookings,
	}, nil
}

// SkillCount is one entry of the skills list
type SkillCount struct {
	Skill string `json:"skill"`
	Count int64  `json:"count"`
}

// Skills lists the distinct worker skills with how many workers offer each, most common first
func (s *WorkerSearchService) Skills(ctx context.Context) ([]SkillCount, error) {
	skills := []SkillCount{}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("skill, COUNT(*) AS count").
		Where("role = ? AND skill <> ''", models.RoleWorker).
		Group("skill").
		Order("count DESC").Order("skill ASC").
		Scan(&skills).Error; err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}
