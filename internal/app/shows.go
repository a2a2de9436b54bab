package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
	appvalidator "github.com/ravenent/show-booking-system/internal/validator"
)

const (
	maxUploadSize     = 10 << 20
	backgroundTimeout = 10 * time.Second
)

var (
	imageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}

	mediaTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
		"video/mp4":  ".mp4",
		"video/webm": ".webm",
	}
)

func (app *Application) ListShows(w http.ResponseWriter, r *http.Request) {
	pagination, issues := readPagination(r.URL.Query())
	if len(issues) > 0 {
		app.validationErrorResponse(w, r, issues)
		return
	}

	shows, metadata, err := app.showRepo.GetUpcoming(r.Context(), app.now(), pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.logVisitor(r)

	resp := api.ShowListResponse{
		Shows:    toShowListItems(shows),
		Metadata: toMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetShow(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	detail, err := app.showRepo.GetBySlug(r.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := api.ShowDetailResponse{
		ShowResponse: toShowResponse(&detail.Show),
		SeatStats:    toSeatStats(detail.Stats),
		Media:        make([]api.MediaResponse, len(detail.Media)),
	}

	for i, m := range detail.Media {
		resp.Media[i] = toMediaResponse(m)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListAllShows(w http.ResponseWriter, r *http.Request) {
	shows, err := app.showRepo.GetAllWithStats(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toShowListItems(shows), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateShow(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateShowRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	showTime, err := domain.ParseClock(input.Time)
	if err != nil {
		app.fieldErrorResponse(w, r, "time", appvalidator.ErrInvalidClock)
		return
	}

	show := &domain.Show{
		Name:        input.Name,
		Description: input.Description,
		Date:        input.Date.Time,
		Time:        showTime,
		SeatPrice:   input.SeatPrice,
	}

	// balcony seats are sold unless the admin opts out
	show.IncludeBalcony = true
	if input.IncludeBalcony != nil {
		show.IncludeBalcony = *input.IncludeBalcony
	}

	if show.IsPast(app.now()) {
		app.fieldErrorResponse(w, r, "date", "must not be in the past")
		return
	}

	err = app.showRepo.CreateWithSeats(r.Context(), show, func(s *domain.Show) []domain.Seat {
		return domain.GenerateSeatLayout(s.IncludeBalcony)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateSlug):
			app.badRequestResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("show created", "show_id", show.ID, "slug", show.Slug)

	// the show exists without its poster QR, an admin can still use it
	err = app.issuer.IssueShowQR(r.Context(), show)
	if err != nil {
		logger.Error("failed to issue show qr code", "show_id", show.ID, "error", err)
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/shows/%s", show.Slug))

	err = app.writeJSON(w, http.StatusCreated, toShowResponse(show), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateShow(w http.ResponseWriter, r *http.Request, showId int) {
	show, ok := app.fetchShow(w, r, showId)
	if !ok {
		return
	}

	var input api.UpdateShowRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if input.Name != nil {
		show.Name = *input.Name
	}
	if input.Description != nil {
		show.Description = *input.Description
	}
	if input.Date != nil {
		show.Date = input.Date.Time
	}
	if input.Time != nil {
		show.Time, err = domain.ParseClock(*input.Time)
		if err != nil {
			app.fieldErrorResponse(w, r, "time", appvalidator.ErrInvalidClock)
			return
		}
	}
	if input.SeatPrice != nil {
		show.SeatPrice = *input.SeatPrice
	}

	err = app.showRepo.Update(r.Context(), show)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusOK, toShowResponse(show), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteShow(w http.ResponseWriter, r *http.Request, showId int) {
	err := app.showRepo.Delete(r.Context(), showId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.contextGetLogger(r).Info("show deleted", "show_id", showId)

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) UploadShowImage(w http.ResponseWriter, r *http.Request, showId int) {
	kind := domain.ImageKind(chi.URLParam(r, "kind"))
	if kind != domain.PosterImage && kind != domain.ThumbnailImage {
		app.notFoundResponse(w, r)
		return
	}

	show, ok := app.fetchShow(w, r, showId)
	if !ok {
		return
	}

	name, ok := app.saveUpload(w, r, path.Join("shows", string(kind)+"s"), imageTypes)
	if !ok {
		return
	}

	err := app.showRepo.SetImage(r.Context(), show.ID, kind, name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if kind == domain.PosterImage {
		show.PosterPath = &name
	} else {
		show.ThumbnailPath = &name
	}

	err = app.writeJSON(w, http.StatusOK, toShowResponse(show), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UploadMedia(w http.ResponseWriter, r *http.Request, showId int) {
	show, ok := app.fetchShow(w, r, showId)
	if !ok {
		return
	}

	name, ok := app.saveUpload(w, r, "media", mediaTypes)
	if !ok {
		return
	}

	description := r.FormValue("description")
	if len(description) > 500 {
		app.fieldErrorResponse(w, r, "description", fmt.Sprintf(appvalidator.ErrMaxLength, "500"))
		return
	}

	media := &domain.MediaFile{
		ShowID:      show.ID,
		FilePath:    name,
		Description: description,
	}

	err := app.mediaRepo.Create(r.Context(), media)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toMediaResponse(*media), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteMedia(w http.ResponseWriter, r *http.Request, mediaId int) {
	media, err := app.mediaRepo.GetById(r.Context(), mediaId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.store.Delete(r.Context(), media.FilePath)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.mediaRepo.Delete(r.Context(), media.ID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) fetchShow(w http.ResponseWriter, r *http.Request, showId int) (*domain.Show, bool) {
	show, err := app.showRepo.GetById(r.Context(), showId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return nil, false
	}

	return show, true
}

// saveUpload stores the multipart "file" field under dir with a random name and
// returns its store path. The content type is sniffed, not taken from the client.
func (app *Application) saveUpload(w http.ResponseWriter, r *http.Request, dir string, allowed map[string]string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	err := r.ParseMultipartForm(maxUploadSize)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return "", false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		app.fieldErrorResponse(w, r, "file", appvalidator.ErrRequired)
		return "", false
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		app.fieldErrorResponse(w, r, "file", appvalidator.ErrRequired)
		return "", false
	}

	ext, ok := allowed[http.DetectContentType(head[:n])]
	if !ok {
		app.fieldErrorResponse(w, r, "file", "unsupported file type")
		return "", false
	}

	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return "", false
	}

	name := path.Join(dir, uuid.NewString()+ext)

	err = app.store.Save(r.Context(), name, file)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return "", false
	}

	return name, true
}

// logVisitor records the caller as a site visitor without delaying the response.
func (app *Application) logVisitor(r *http.Request) {
	logger := app.contextGetLogger(r)
	ip := clientIP(r)

	app.background(logger, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		visit := &domain.VisitorLog{
			IPAddress: ip,
			Location:  app.locate(ctx, ip),
			CreatedAt: app.now(),
		}

		err := app.analyticsRepo.CreateVisitorLog(ctx, visit)
		if err != nil {
			logger.Error("failed to log visitor", "error", err)
		}
	})
}

// locate never fails, an unknown location is stored instead.
func (app *Application) locate(ctx context.Context, ip string) domain.Location {
	if app.geo == nil {
		return domain.Location{}
	}

	loc, err := app.geo.Locate(ctx, ip)
	if err != nil {
		app.logger.Warn("geolocation failed", "ip", ip, "error", err)
		return domain.Location{}
	}

	return loc
}

func toShowResponse(s *domain.Show) api.ShowResponse {
	return api.ShowResponse{
		Id:             s.ID,
		Name:           s.Name,
		Slug:           s.Slug,
		Description:    s.Description,
		Date:           openapi_types.Date{Time: s.Date},
		Time:           domain.FormatClock(s.Time),
		SeatPrice:      s.SeatPrice,
		IncludeBalcony: s.IncludeBalcony,
		PosterUrl:      mediaURL(s.PosterPath),
		ThumbnailUrl:   mediaURL(s.ThumbnailPath),
		QrCodeUrl:      mediaURL(s.QRCodePath),
		CreatedAt:      s.CreatedAt,
		Version:        s.Version,
	}
}

func toSeatStats(s domain.SeatStats) api.SeatStats {
	return api.SeatStats{
		Total:     s.Total,
		Booked:    s.Booked,
		Remaining: s.Remaining,
	}
}

func toShowListItems(shows []domain.ShowWithStats) []api.ShowListItem {
	items := make([]api.ShowListItem, len(shows))
	for i := range shows {
		items[i] = api.ShowListItem{
			ShowResponse: toShowResponse(&shows[i].Show),
			SeatStats:    toSeatStats(shows[i].Stats),
		}
	}

	return items
}

func toMediaResponse(m domain.MediaFile) api.MediaResponse {
	return api.MediaResponse{
		Id:          m.ID,
		Url:         *mediaURL(&m.FilePath),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}
