package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/craftmarket/productboard/internal/imaging"
	"github.com/craftmarket/productboard/internal/product"
	"github.com/craftmarket/productboard/internal/telemetry"
)

// priceValue accepts a JSON number or a numeric string, since the legacy
// form posts prices as text. Either way the parsed value must be a positive
// finite number before anything is persisted.
type priceValue float64

func (p *priceValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return fmt.Errorf("parse price: %w", err)
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*p = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("parse price %q: %w", str, err)
		}
		*p = priceValue(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("parse price: %w", err)
	}
	*p = priceValue(v)
	return nil
}

type submissionRequest struct {
	ImageURL           string     `json:"imageUrl"`
	ProductName        string     `json:"productName"`
	ProductDescription string     `json:"productDescription"`
	Price              priceValue `json:"price"`
}

func (r submissionRequest) missingField() bool {
	return strings.TrimSpace(r.ImageURL) == "" ||
		strings.TrimSpace(r.ProductName) == "" ||
		strings.TrimSpace(r.ProductDescription) == "" ||
		r.Price == 0
}

func (r submissionRequest) validate() error {
	if r.missingField() {
		return errors.New("All fields are required.")
	}
	price := float64(r.Price)
	if price < 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return errors.New("Price must be a positive number.")
	}
	return nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.logger.Error("list products failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.persistSubmission(r.Context(), req, "api"); err != nil {
		s.logger.Error("create product failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeMessage(w, http.StatusCreated, "Product created successfully.")
}

// legacyReviewRequest preserves the old combined endpoint's contract: 405
// for anything but POST, 400 when a field is missing, 200 on success. It
// shares the single transactional creation path with the primary route.
func (s *Server) legacyReviewRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "Only POST requests allowed")
		return
	}
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required.")
		return
	}
	if err := req.validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.persistSubmission(r.Context(), req, "legacy"); err != nil {
		s.logger.Error("review request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeMessage(w, http.StatusOK, "Product saved and review request submitted successfully.")
}

// persistSubmission creates the product and its pending review record in one
// transaction, then publishes a best-effort notification. Resubmitting
// identical fields creates a fresh pair of records every time.
func (s *Server) persistSubmission(ctx context.Context, req submissionRequest, path string) error {
	now := s.clock.Now()
	productID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate product id: %w", err)
	}
	reviewID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate review id: %w", err)
	}

	p := product.Product{
		ID:          productID,
		ImageURL:    req.ImageURL,
		Name:        req.ProductName,
		Description: req.ProductDescription,
		Price:       float64(req.Price),
		AuthorID:    product.DefaultAuthorID,
		Status:      product.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rev := &product.Review{
		ID:        reviewID,
		ProductID: productID,
		Status:    product.StatusPending,
		AuthorID:  product.DefaultAuthorID,
		AdminID:   nil,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateProduct(ctx, p, rev); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	telemetry.ObserveProductCreated(path, true)

	if s.publisher != nil {
		event := product.ReviewRequestedEvent{
			ProductID:   productID,
			ReviewID:    reviewID,
			ProductName: p.Name,
			AuthorID:    p.AuthorID,
			SubmittedAt: now,
		}
		if _, err := s.publisher.Publish(ctx, s.cfg.PubSub.TopicName, event); err != nil {
			// Notification is best-effort; the records are already committed.
			s.logger.Warn("review notification failed",
				zap.String("product_id", productID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	source, crop, err := s.readUploadRequest(w, r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	encoded, err := s.engine.CropToPNG(bytes.NewReader(source), crop)
	if err != nil {
		if errors.Is(err, imaging.ErrImageTooSmall) {
			writeMessage(w, http.StatusBadRequest, "Image must be at least 150 x 150 pixels.")
			return
		}
		writeMessage(w, http.StatusBadRequest, "invalid image")
		return
	}

	url, err := s.uploader.Upload(r.Context(), encoded)
	if err != nil {
		writeMessage(w, http.StatusBadGateway, "Failed to upload image.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"imageUrl": url})
}

// readUploadRequest extracts the source image bytes and the optional crop
// region from either a multipart form or a raw image body.
func (s *Server) readUploadRequest(w http.ResponseWriter, r *http.Request) ([]byte, *imaging.PercentCrop, error) {
	maxBytes := s.cfg.Server.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, nil, errors.New("invalid multipart form")
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, nil, errors.New("image file is required")
		}
		defer file.Close()
		source, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			return nil, nil, errors.New("failed to read image")
		}
		if int64(len(source)) > maxBytes {
			return nil, nil, errors.New("image too large")
		}
		crop, err := parseCropFields(r)
		if err != nil {
			return nil, nil, err
		}
		return source, crop, nil
	}

	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return nil, nil, errors.New("failed to read image")
	}
	return source, nil, nil
}

var cropFields = [4]string{"crop_x", "crop_y", "crop_width", "crop_height"}

// parseCropFields reads the percentage-based crop region from the form.
// Either all four fields are present or none; absence means the centered
// default crop.
func parseCropFields(r *http.Request) (*imaging.PercentCrop, error) {
	provided := 0
	var values [4]float64
	for i, name := range cropFields {
		raw := strings.TrimSpace(r.FormValue(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 100 {
			return nil, fmt.Errorf("invalid %s", name)
		}
		values[i] = v
		provided++
	}
	switch provided {
	case 0:
		return nil, nil
	case len(cropFields):
		return &imaging.PercentCrop{
			X:      values[0],
			Y:      values[1],
			Width:  values[2],
			Height: values[3],
		}, nil
	default:
		return nil, errors.New("crop region requires crop_x, crop_y, crop_width and crop_height")
	}
}
