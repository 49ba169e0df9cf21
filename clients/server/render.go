// render.go — DP render and export endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/xob0t/eventdp/pkg/compose"
	"github.com/xob0t/eventdp/pkg/generator"
)

const (
	maxRenderForm  = 32 << 20
	maxPixelRatio  = 4
	maxContainerPx = 4096
)

// renderRequest is the multipart form shared by render and export.
type renderRequest struct {
	photo          []byte
	texts          []string
	containerWidth float64
	pixelRatio     float64
	format         generator.Format
	save           bool
}

func (s *Server) parseRenderRequest(w http.ResponseWriter, r *http.Request) (*renderRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRenderForm)
	if err := r.ParseMultipartForm(maxRenderForm); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("parse form: %w: %w", compose.ErrValidation, err)
	}

	req := &renderRequest{
		texts:          r.Form["text"],
		containerWidth: compose.DefaultContainerWidth,
		pixelRatio:     s.cfg.ExportPixelRatio,
	}

	var err error
	if v := r.FormValue("containerWidth"); v != "" {
		req.containerWidth, err = strconv.ParseFloat(v, 64)
		if err != nil || req.containerWidth <= 0 || req.containerWidth > maxContainerPx {
			return nil, fmt.Errorf("containerWidth %q: %w", v, compose.ErrValidation)
		}
	}
	if v := r.FormValue("pixelRatio"); v != "" {
		req.pixelRatio, err = strconv.ParseFloat(v, 64)
		if err != nil || req.pixelRatio <= 0 || req.pixelRatio > maxPixelRatio {
			return nil, fmt.Errorf("pixelRatio %q: %w", v, compose.ErrValidation)
		}
	}
	if req.format, err = generator.ParseFormat(r.FormValue("format")); err != nil {
		return nil, fmt.Errorf("%w: %w", compose.ErrValidation, err)
	}
	req.save, _ = strconv.ParseBool(r.FormValue("save"))

	file, _, err := r.FormFile("photo")
	if err == nil {
		defer file.Close()
		if req.photo, err = io.ReadAll(file); err != nil {
			return nil, fmt.Errorf("read photo: %w: %w", compose.ErrImageLoad, err)
		}
	}
	return req, nil
}

// composeDP builds a session for the event and exports the DP.
func (s *Server) composeDP(ctx context.Context, eventID string, req *renderRequest) (*compose.Artifact, error) {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	session := compose.NewSession(compose.Options{
		ContainerWidth: req.containerWidth,
		MaxHeight:      s.cfg.MaxCanvasHeight,
		Fonts:          s.fonts,
	})
	session.SetEvent(e)

	flyer, err := s.flyers.Original(eventID)
	if err != nil {
		return nil, fmt.Errorf("event %s has no flyer: %w", eventID, compose.ErrCapabilityUnavailable)
	}
	if err := session.LoadFlyer(ctx, compose.FromBytes(flyer)); err != nil {
		return nil, err
	}
	if len(req.photo) > 0 {
		if err := session.LoadPhoto(ctx, compose.FromBytes(req.photo)); err != nil {
			return nil, err
		}
	}
	session.SetTexts(req.texts)

	return session.Export(compose.ExportOptions{PixelRatio: req.pixelRatio, Format: req.format})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	req, err := s.parseRenderRequest(w, r)
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}
	art, err := s.composeDP(ctx, mux.Vars(r)["id"], req)
	s.countExport(req.format, err)
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", art.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="dp%s"`, req.format.Ext()))
	w.Write(art.Data)
}

type exportResponse struct {
	DataURL    string `json:"dataUrl"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ArtifactID string `json:"artifactId,omitempty"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()

	req, err := s.parseRenderRequest(w, r)
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}
	if req.save && s.artifacts == nil {
		s.respondWithFailure(w, fmt.Errorf("artifact storage: %w", compose.ErrCapabilityUnavailable))
		return
	}

	art, err := s.composeDP(ctx, mux.Vars(r)["id"], req)
	s.countExport(req.format, err)
	if err != nil {
		s.respondWithFailure(w, err)
		return
	}

	resp := exportResponse{DataURL: art.DataURL(), Width: art.Width, Height: art.Height}
	if req.save {
		id, err := s.artifacts.Save(ctx, art.MIME, art.Data)
		if err != nil {
			s.respondWithFailure(w, fmt.Errorf("%w: %w", compose.ErrExport, err))
			return
		}
		resp.ArtifactID = id
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) countExport(format generator.Format, err error) {
	result := "ok"
	if err != nil {
		result = compose.KindOf(err)
		if result == "" {
			result = "error"
		}
	}
	s.metrics.exportsTotal.WithLabelValues(string(format), result).Inc()
}
