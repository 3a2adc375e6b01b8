package ads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	database "github.com/FACorreiaa/trexense-api/app/db"
	appMiddleware "github.com/FACorreiaa/trexense-api/app/middleware"
	"github.com/FACorreiaa/trexense-api/app/observability/metrics"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/platform/imaging"
	"github.com/FACorreiaa/trexense-api/internal/platform/moderation"
	"github.com/FACorreiaa/trexense-api/internal/platform/storage"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

const (
	defaultPage     = 1
	defaultPageSize = 4
	maxPageSize     = 100
	maxPage         = 1_000_000
)

// normalizeFilter fills in paging defaults and caps the page size. Pages past
// maxPage are rejected so the row offset always fits.
func normalizeFilter(filter types.BannerFilter) (types.BannerFilter, error) {
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Page > maxPage {
		return filter, api.BadRequest(fmt.Sprintf(`"page" must be at most %d`, maxPage))
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	return filter, nil
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	SaveAdBanner(ctx context.Context, caller appMiddleware.Identity, image []byte, req types.BannerRequest) (*types.BannerAd, error)
	GetAllBanners(ctx context.Context, filter types.BannerFilter) (*types.BannerPage, error)
	GetBannerByID(ctx context.Context, bannerID uuid.UUID) (*types.BannerAd, error)
	DeleteBannerByID(ctx context.Context, caller appMiddleware.Identity, bannerID uuid.UUID) (*types.BannerAd, error)
	// UpdateBanner re-runs the image pipeline when image is non-nil.
	UpdateBanner(ctx context.Context, caller appMiddleware.Identity, bannerID uuid.UUID, req types.UpdateBannerRequest, image []byte) (*types.BannerAd, error)
	ChangeBannerPaidStatus(ctx context.Context, caller appMiddleware.Identity, bannerID uuid.UUID) (*types.BannerAd, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	repo     Repository
	checker  moderation.Checker
	uploader storage.Uploader
	now      func() time.Time
}

func NewService(repo Repository, checker moderation.Checker, uploader storage.Uploader, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		repo:     repo,
		checker:  checker,
		uploader: uploader,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// processAndUpload crops the image to the banner format, screens the original
// upload and stores the cropped PNG. It returns the public URL.
func (s *ServiceImpl) processAndUpload(ctx context.Context, image []byte) (string, error) {
	ctx, span := otel.Tracer("AdsService").Start(ctx, "processAndUpload", trace.WithAttributes(
		attribute.Int("image.bytes", len(image)),
	))
	defer span.End()

	resized, err := imaging.CoverCrop(image, imaging.BannerWidth, imaging.BannerHeight)
	if err != nil {
		return "", api.BadRequest("The uploaded file must be a valid image")
	}

	if err := s.checker.Check(ctx, image); err != nil {
		if errors.Is(err, moderation.ErrExplicitContent) {
			metrics.Get().BannerModerationRejections.Add(ctx, 1)
			return "", api.BadRequest("This image contains explicit or violent content")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "moderation failed")
		return "", api.Internal("Failed to screen image", err)
	}

	url, err := s.uploader.Upload(ctx, storage.ObjectName("banners", s.now()), resized, "image/png",
		map[string]string{"type": "banner-image"})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return "", api.Internal("Failed to upload banner", err)
	}
	return url, nil
}

func (s *ServiceImpl) SaveAdBanner(ctx context.Context, caller appMiddleware.Identity, image []byte, req types.BannerRequest) (*types.BannerAd, error) {
	l := s.logger.With(slog.String("method", "SaveAdBanner"), slog.String("user_id", caller.UserID.String()))

	url, err := s.processAndUpload(ctx, image)
	if err != nil {
		return nil, err
	}

	now := s.now()
	banner := types.BannerAd{
		ID:             uuid.New(),
		UserID:         caller.UserID,
		Title:          req.Title,
		Description:    req.Description,
		StartDate:      req.StartDate,
		TargetURL:      req.TargetURL,
		BannerDuration: req.BannerDuration,
		Cost:           req.Cost,
		Location:       req.Location,
		ImageURL:       url,
		ValidUntil:     now.AddDate(0, 0, req.BannerDuration),
		CreatedAt:      now,
	}
	if err := s.repo.CreateBanner(ctx, banner); err != nil {
		return nil, api.Internal("Failed to save banner", err)
	}
	l.InfoContext(ctx, "Banner saved", slog.String("banner_id", banner.ID.String()))
	return &banner, nil
}

// GetAllBanners purges expired banners before reading so none is ever listed.
func (s *ServiceImpl) GetAllBanners(ctx context.Context, filter types.BannerFilter) (*types.BannerPage, error) {
	ctx, span := otel.Tracer("AdsService").Start(ctx, "GetAllBanners")
	defer span.End()

	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	paidOnly := filter.IsPaid != nil && *filter.IsPaid

	purged, err := s.repo.PurgeExpired(ctx, s.now())
	if err != nil {
		return nil, api.Internal("Failed to retrieve banners", err)
	}
	if purged > 0 {
		s.logger.InfoContext(ctx, "Purged expired banners", slog.Int64("count", purged))
	}

	page := &types.BannerPage{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountBanners(gctx, paidOnly)
		page.TotalCount = n
		return err
	})
	g.Go(func() error {
		banners, err := s.repo.ListBanners(gctx, paidOnly, filter.PageSize, (filter.Page-1)*filter.PageSize)
		page.BannerData = banners
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, api.Internal("Failed to retrieve banners", err)
	}
	return page, nil
}

func bannerNotFound(err error, internalMsg string) error {
	if errors.Is(err, database.ErrNotFound) {
		return api.NotFound("Banner not found")
	}
	return api.Internal(internalMsg, err)
}

func (s *ServiceImpl) GetBannerByID(ctx context.Context, bannerID uuid.UUID) (*types.BannerAd, error) {
	banner, err := s.repo.GetBanner(ctx, bannerID)
	if err != nil {
		return nil, bannerNotFound(err, "Failed to retrieve banner")
	}
	return banner, nil
}

// owned loads a banner and checks the caller may change it.
func (s *ServiceImpl) owned(ctx context.Context, caller appMiddleware.Identity, bannerID uuid.UUID) (*types.BannerAd, error) {
	banner, err := s.GetBannerByID(ctx, bannerID)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(banner.UserID) {
		return nil, api.Forbidden("Forbidden")
	}
	return banner, nil
}

func (s *ServiceImpl) DeleteBannerByID(ctx context.Context, caller appMiddleware.Identity, bannerID uuid.UUID) (*types.BannerAd, error) {
	if _, err := s.owned(ctx, caller, bannerID); err != nil {
		return nil, err
	}
	banner, err := s.repo.DeleteBanner(ctx, bannerID)
	if err != nil {
		return nil, bannerNotFound(err, "Failed to delete banner")
	}
	return banner, nil
}

func (s *ServiceImpl) UpdateBanner(ctx context.Context, caller appMiddleware.Identity, bannerID uuid.UUID, req types.UpdateBannerRequest, image []byte) (*types.BannerAd, error) {
	if _, err := s.owned(ctx, caller, bannerID); err != nil {
		return nil, err
	}

	var imageURL *string
	if image != nil {
		url, err := s.processAndUpload(ctx, image)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	banner, err := s.repo.UpdateBanner(ctx, bannerID, req, imageURL)
	if err != nil {
		return nil, bannerNotFound(err, "Failed to update banner")
	}
	return banner, nil
}

// ChangeBannerPaidStatus only ever sets the flag, so repeating it is harmless.
func (s *ServiceImpl) ChangeBannerPaidStatus(ctx context.Context, caller appMiddleware.Identity, bannerID uuid.UUID) (*types.BannerAd, error) {
	if _, err := s.owned(ctx, caller, bannerID); err != nil {
		return nil, err
	}
	banner, err := s.repo.MarkPaid(ctx, bannerID)
	if err != nil {
		return nil, bannerNotFound(err, "Failed to update banner")
	}
	return banner, nil
}
