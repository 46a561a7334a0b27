package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/HabtB/Pharmacy-Pickup/internal/extract"
	"github.com/HabtB/Pharmacy-Pickup/internal/imaging"
	"github.com/HabtB/Pharmacy-Pickup/internal/locate"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
	"github.com/HabtB/Pharmacy-Pickup/internal/ocr"
)

// ErrInvalidArgument marks requests the caller must fix.
var ErrInvalidArgument = errors.New("invalid argument")

// LocatedItem is a merged pick-list item with its storage location.
type LocatedItem struct {
	extract.MergedItem
	Location locate.Result `json:"location"`
}

// PhotoReport describes how one photo was read.
type PhotoReport struct {
	Path       string                    `json:"path"`
	Image      *imaging.ImageInfo        `json:"image,omitempty"`
	Preprocess *imaging.PreprocessReport `json:"preprocess,omitempty"`
	Words      int                       `json:"words"`
}

// ExtractResponse is the result of pick_list_extract and pick_list_parse.
type ExtractResponse struct {
	BatchID  string                `json:"batch_id"`
	Items    []LocatedItem         `json:"items"`
	Pages    []*extract.PageResult `json:"pages"`
	Photos   []PhotoReport         `json:"photos,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

// OCRResponse is the result of ocr_page.
type OCRResponse struct {
	Page  extract.Page `json:"page"`
	Photo PhotoReport  `json:"photo"`
}

// ReferenceStatus is the result of reference_info.
type ReferenceStatus struct {
	Reference ReferenceInfo     `json:"reference"`
	Entries   int               `json:"entries"`
	Cache     locate.CacheStats `json:"lookup_cache"`
	OCR       ocr.Info          `json:"ocr"`
	Version   string            `json:"version"`
}

// ExtractPhotos reads every photo, extracts the batch and locates the merged
// items. Photos are read concurrently with the engine's worker limit and are
// evicted from the image cache afterwards.
func (s *Server) ExtractPhotos(ctx context.Context, paths []string, lookup bool) (*ExtractResponse, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no photo paths", ErrInvalidArgument)
	}
	defer func() {
		for _, p := range paths {
			s.cache.Evict(p)
		}
	}()

	pages := make([]extract.Page, len(paths))
	photos := make([]PhotoReport, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.engine.Options().Workers, 1))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			page, report, err := s.readPhoto(gctx, path, !s.skipPrep)
			if err != nil {
				return err
			}
			pages[i], photos[i] = page, report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp, err := s.extractPages(ctx, pages, lookup)
	if err != nil {
		return nil, err
	}
	resp.Photos = photos
	return resp, nil
}

// ParsePages extracts already-recognized pages, skipping OCR.
func (s *Server) ParsePages(ctx context.Context, pages []extract.Page, lookup bool) (*ExtractResponse, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrInvalidArgument)
	}
	return s.extractPages(ctx, pages, lookup)
}

func (s *Server) extractPages(ctx context.Context, pages []extract.Page, lookup bool) (*ExtractResponse, error) {
	batch, err := s.engine.ExtractBatch(ctx, pages)
	if err != nil {
		return nil, err
	}

	resp := &ExtractResponse{
		BatchID:  batch.ID,
		Items:    make([]LocatedItem, len(batch.Items)),
		Pages:    batch.Pages,
		Warnings: batch.Warnings,
	}
	found := 0
	for i, it := range batch.Items {
		resp.Items[i] = LocatedItem{MergedItem: it}
		if lookup {
			resp.Items[i].Location = s.resolver.Lookup(it.Name, it.Strength, it.Form)
			if resp.Items[i].Location.Found {
				found++
			}
		}
	}
	logging.Logger().Info("pick list extracted", "batch", batch.ID, "items", len(resp.Items), "located", found)
	return resp, nil
}

// LookupLocation resolves one medication to its storage location.
func (s *Server) LookupLocation(name, strength, form string) (locate.Result, error) {
	if strings.TrimSpace(name) == "" {
		return locate.NotFound, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	return s.resolver.Lookup(name, strength, form), nil
}

// ReadPhoto runs OCR on one photo and returns the page the engine would see.
func (s *Server) ReadPhoto(ctx context.Context, path string, preprocess bool) (*OCRResponse, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidArgument)
	}
	defer s.cache.Evict(path)
	page, report, err := s.readPhoto(ctx, path, preprocess && !s.skipPrep)
	if err != nil {
		return nil, err
	}
	return &OCRResponse{Page: page, Photo: report}, nil
}

// Reference reports the loaded reference table and OCR availability.
func (s *Server) Reference() ReferenceStatus {
	return ReferenceStatus{
		Reference: s.ref,
		Entries:   s.resolver.Len(),
		Cache:     s.resolver.CacheStats(),
		OCR:       s.reader.Info(),
		Version:   s.version,
	}
}

func (s *Server) readPhoto(ctx context.Context, path string, preprocess bool) (extract.Page, PhotoReport, error) {
	report := PhotoReport{Path: path}
	if path == "" {
		return extract.Page{}, report, fmt.Errorf("%w: empty photo path", ErrInvalidArgument)
	}

	info, err := imaging.LoadImageInfo(s.cache, path)
	if err != nil {
		return extract.Page{}, report, err
	}
	report.Image = info

	img, err := s.cache.Load(path)
	if err != nil {
		return extract.Page{}, report, err
	}
	if preprocess {
		out, prep := imaging.Preprocess(img, s.prep)
		img, report.Preprocess = out, &prep
		logging.Logger().Debug("photo preprocessed", "path", path, "scale", prep.Scale, "contrast_boost", prep.ContrastBoost)
	}

	page, err := s.reader.ExtractPage(ctx, path, img)
	if err != nil {
		return extract.Page{}, report, fmt.Errorf("ocr %s: %w", path, err)
	}
	report.Words = len(page.Tokens)
	return page, report, nil
}
