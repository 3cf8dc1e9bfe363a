// Package api exposes the library and the upload jobs over HTTP.
package api

import (
	"bufio"
	"context"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/library"
	"github.com/dmitrijs2005/streamviewer/internal/logging"
	"github.com/dmitrijs2005/streamviewer/internal/progress"
	"github.com/dmitrijs2005/streamviewer/internal/tracks"
	"github.com/dmitrijs2005/streamviewer/internal/upload"
	"github.com/dmitrijs2005/streamviewer/internal/videos"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/valyala/fasthttp"
)

type Library interface {
	Tracks(ctx context.Context) ([]tracks.Summary, error)
	Videos(ctx context.Context) ([]videos.Summary, error)
	Track(ctx context.Context, id string) (library.TrackView, error)
	MatchedVideos(ctx context.Context, id string) ([]videos.Summary, error)
	DeleteTrack(ctx context.Context, id string) (library.DeleteReport, error)
}

type Uploads interface {
	Submit(ctx context.Context, filePath string) (string, error)
	Status(jobID string) (upload.Snapshot, error)
	Cancel(jobID string) error
	List() []upload.Snapshot
}

type Streams interface {
	Subscribe(ctx context.Context, jobID string) (*progress.Subscription, error)
}

const defaultKeepAlive = 15 * time.Second

type Handler struct {
	lib            Library
	uploads        Uploads
	streams        Streams
	recordingsRoot string
	keepAlive      time.Duration
	logger         logging.Logger
}

// NewHandler wires the routes' dependencies. Relative upload paths are
// resolved against recordingsRoot.
func NewHandler(lib Library, uploads Uploads, streams Streams, recordingsRoot string, logger logging.Logger) *Handler {
	return &Handler{
		lib:            lib,
		uploads:        uploads,
		streams:        streams,
		recordingsRoot: recordingsRoot,
		keepAlive:      defaultKeepAlive,
		logger:         logger.With("module", "api"),
	}
}

// NewApp returns a fiber app with every route registered.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          h.errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	h.RegisterRoutes(app)
	return app
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	r.Get("/api/tracks", h.listTracks)
	r.Get("/api/videos", h.listVideos)
	r.Get("/api/track/:id", h.getTrack)
	r.Get("/api/track/:id/videos", h.trackVideos)
	r.Post("/delete-track", h.deleteTrack)

	r.Post("/api/upload", h.submitUpload)
	r.Get("/api/uploads", h.listUploads)
	r.Get("/api/upload/:id", h.uploadStatus)
	r.Post("/api/upload/:id/cancel", h.cancelUpload)
	r.Get("/api/upload/:id/stream", h.streamUpload)
}

func (h *Handler) listTracks(c *fiber.Ctx) error {
	ts, err := h.lib.Tracks(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(ts)
}

func (h *Handler) listVideos(c *fiber.Ctx) error {
	vs, err := h.lib.Videos(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(vs)
}

func (h *Handler) getTrack(c *fiber.Ctx) error {
	view, err := h.lib.Track(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *Handler) trackVideos(c *fiber.Ctx) error {
	vs, err := h.lib.MatchedVideos(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(vs)
}

type deleteResponse struct {
	Success bool `json:"success"`
	library.DeleteReport
	VideoDeleted bool `json:"video_deleted"`
}

func (h *Handler) deleteTrack(c *fiber.Ctx) error {
	var body struct {
		TrackID string `json:"track_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.TrackID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Track ID not provided")
	}

	report, err := h.lib.DeleteTrack(c.UserContext(), body.TrackID)
	if err != nil {
		return err
	}
	return c.JSON(deleteResponse{Success: true, DeleteReport: report, VideoDeleted: report.VideoDeleted()})
}

func (h *Handler) submitUpload(c *fiber.Ctx) error {
	var body struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&body); err != nil || body.Path == "" {
		return fiber.NewError(fiber.StatusBadRequest, "path required")
	}

	p := body.Path
	if !filepath.IsAbs(p) && h.recordingsRoot != "" {
		p = filepath.Join(h.recordingsRoot, filepath.FromSlash(p))
	}

	id, err := h.uploads.Submit(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": id})
}

func (h *Handler) listUploads(c *fiber.Ctx) error {
	return c.JSON(h.uploads.List())
}

func (h *Handler) uploadStatus(c *fiber.Ctx) error {
	s, err := h.uploads.Status(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(s)
}

func (h *Handler) cancelUpload(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.uploads.Cancel(id); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": id})
}

func (h *Handler) streamUpload(c *fiber.Ctx) error {
	id := c.Params("id")
	// the subscription outlives the handler; the stream writer closes it
	sub, err := h.streams.Subscribe(context.Background(), id)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	keepAlive := h.keepAlive
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case e, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := progress.WriteSSE(w, e); err != nil {
					// client went away
					return
				}
			case <-ticker.C:
				if err := progress.WriteKeepAlive(w); err != nil {
					return
				}
			}
		}
	}))
	return nil
}
