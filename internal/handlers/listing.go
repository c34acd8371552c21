package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/aryanprajapat98/REMS/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxMultipartMemory   = 16 << 20
	sniffLen             = 512
	formFieldTitle       = "title"
	formFieldPrice       = "price"
	formFieldLocation    = "location"
	formFieldDescription = "description"
	formFieldBedrooms    = "bedrooms"
	formFieldBathrooms   = "bathrooms"
	formFieldArea        = "area"
	formFieldAmenities   = "amenities"
	formFieldContact     = "contact_number"
	formFieldImage       = "image"
)

// ListingHandler provides HTTP handlers for listings.
type ListingHandler struct {
	listingService *services.ListingService
	log            *zap.Logger
}

// NewListingHandler constructs a ListingHandler.
func NewListingHandler(listingService *services.ListingService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		log:            log,
	}
}

// ListingRouter registers listing routes on the given router. The router is
// expected to run OptionalAuth; each operation decides what an anonymous
// caller may do.
func ListingRouter(r chi.Router, handler *ListingHandler, messages *MessageHandler) {
	r.Get("/", handler.ListListings)
	r.Post("/", handler.CreateListing)
	r.Get("/search", handler.SearchListings)
	r.Route("/{listingID}", func(r chi.Router) {
		r.Get("/", handler.GetListing)
		r.Delete("/", handler.DeleteListing)
		r.Get("/image", handler.GetListingImage)
		r.Post("/approve", handler.ApproveListing)
		r.Get("/messages", messages.ListThread)
		r.Post("/messages", messages.SendMessage)
	})
}

func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listingService.ListApproved(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list listings")
		return
	}
	writeJSON(w, http.StatusOK, ListingListResponse{Items: listings})
}

func (h *ListingHandler) SearchListings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListingFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listings, err := h.listingService.Search(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to search listings")
		return
	}
	writeJSON(w, http.StatusOK, ListingListResponse{Items: listings})
}

func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	input, err := parseListingForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.listingService.Create(r.Context(), principalFromContext(r.Context()), input)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to create listing")
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.listingService.Get(r.Context(), principalFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to fetch listing")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) GetListingImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	image, err := h.listingService.Image(r.Context(), principalFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to fetch listing image")
		return
	}
	defer image.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(image, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeServiceError(w, r, h.log, err, "failed to fetch listing image")
		return
	}
	head = head[:n]

	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(head); err != nil {
		return
	}
	if _, err := io.Copy(w, image); err != nil {
		h.log.Warn("listing image stream interrupted", zap.Int("listing_id", id), zap.Error(err))
	}
}

func (h *ListingHandler) ApproveListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.listingService.Approve(r.Context(), principalFromContext(r.Context()), id); err != nil {
		writeServiceError(w, r, h.log, err, "failed to approve listing")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "approved"})
}

func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.listingService.Delete(r.Context(), principalFromContext(r.Context()), id); err != nil {
		writeServiceError(w, r, h.log, err, "failed to delete listing")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListingListResponse wraps a list of listings.
type ListingListResponse struct {
	Items []types.Listing `json:"items"`
}

func parseListingFilter(r *http.Request) (types.ListingFilter, error) {
	query := r.URL.Query()
	filter := types.ListingFilter{
		Query:    query.Get("q"),
		Location: query.Get("location"),
	}

	if raw := strings.TrimSpace(query.Get("min_price")); raw != "" {
		minPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.ListingFilter{}, errors.New("invalid min_price")
		}
		filter.MinPrice = minPrice
	}

	maxPrice, err := parseOptionalFloat(query.Get("max_price"))
	if err != nil {
		return types.ListingFilter{}, errors.New("invalid max_price")
	}
	filter.MaxPrice = maxPrice
	return filter, nil
}

func parseListingForm(r *http.Request) (services.ListingInput, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return services.ListingInput{}, errors.New("invalid multipart form")
		}
	} else if err := r.ParseForm(); err != nil {
		return services.ListingInput{}, errors.New("invalid form")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(formFieldPrice)), 64)
	if err != nil {
		return services.ListingInput{}, errors.New("invalid price")
	}
	bedrooms, err := parseOptionalInt(r.FormValue(formFieldBedrooms))
	if err != nil {
		return services.ListingInput{}, errors.New("invalid bedrooms")
	}
	bathrooms, err := parseOptionalInt(r.FormValue(formFieldBathrooms))
	if err != nil {
		return services.ListingInput{}, errors.New("invalid bathrooms")
	}
	area, err := parseOptionalFloat(r.FormValue(formFieldArea))
	if err != nil {
		return services.ListingInput{}, errors.New("invalid area")
	}

	image, err := parseImageFile(r.MultipartForm)
	if err != nil {
		return services.ListingInput{}, err
	}

	return services.ListingInput{
		Title:         r.FormValue(formFieldTitle),
		Price:         price,
		Location:      r.FormValue(formFieldLocation),
		Description:   r.FormValue(formFieldDescription),
		Bedrooms:      bedrooms,
		Bathrooms:     bathrooms,
		Area:          area,
		Amenities:     r.FormValue(formFieldAmenities),
		ContactNumber: r.FormValue(formFieldContact),
		Image:         image,
	}, nil
}

// parseImageFile returns the optional listing image. It is nil when the form
// carries no file.
func parseImageFile(form *multipart.Form) (*services.ImageUpload, error) {
	if form == nil {
		return nil, nil
	}

	files := form.File[formFieldImage]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("only one image is allowed")
	}

	file, err := files[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	data, err := readFileLimited(file, services.MaxImageBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.New("image must be an image file")
	}
	return &services.ImageUpload{Data: data, ContentType: contentType}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
