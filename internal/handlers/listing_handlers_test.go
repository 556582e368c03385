package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"unimarket/internal/common"
	"unimarket/internal/models"
	"unimarket/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) ListAll(ctx context.Context) ([]*models.ListingView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ListingView), args.Error(1)
}

func (m *MockListingService) Create(ctx context.Context, input services.CreateListingInput, requesterEmail string) (*models.ListingView, error) {
	args := m.Called(ctx, input, requesterEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ListingView), args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, listingID uuid.UUID, requesterEmail string) error {
	args := m.Called(ctx, listingID, requesterEmail)
	return args.Error(0)
}

func (m *MockListingService) AttachImage(ctx context.Context, listingID uuid.UUID, requesterEmail string, reader io.Reader, size int64, contentType string) (*models.ListingView, error) {
	args := m.Called(ctx, listingID, requesterEmail, reader, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ListingView), args.Error(1)
}

// asUser injects the resolved identity the way the middleware does.
func asUser(c echo.Context, email string) {
	ctx := common.WithUserEmail(c.Request().Context(), email)
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestListListings(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	views := []*models.ListingView{{
		ID:          uuid.New(),
		Title:       "Bike",
		Price:       50.0,
		SellerEmail: "a@x.com",
	}}
	listingSvc.On("ListAll", mock.Anything).Return(views, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.ListListings(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []*models.ListingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a@x.com", got[0].SellerEmail)
}

func TestCreateListing_Success(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	view := &models.ListingView{ID: uuid.New(), Title: "Bike", SellerEmail: "a@x.com"}
	listingSvc.On("Create", mock.Anything, services.CreateListingInput{
		Title:       "Bike",
		Description: "Good bike",
		ListingType: models.ListingTypeSale,
		Price:       50.0,
	}, "a@x.com").Return(view, nil)

	c, rec := postJSON(t, "/api/listings",
		`{"title":"Bike","description":"Good bike","listing_type":"SALE","price":50.0}`)
	asUser(c, "a@x.com")

	require.NoError(t, h.CreateListing(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	listingSvc.AssertExpectations(t)
}

func TestCreateListing_NoIdentity(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	c, _ := postJSON(t, "/api/listings",
		`{"title":"Bike","description":"Good bike","listing_type":"SALE","price":50.0}`)

	err := h.CreateListing(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestCreateListing_InvalidListingType(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	c, rec := postJSON(t, "/api/listings",
		`{"title":"Bike","description":"Good bike","listing_type":"BARTER","price":50.0}`)
	asUser(c, "a@x.com")

	require.NoError(t, h.CreateListing(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	listingSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateListing_UnknownRequesterIsClientError(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	listingSvc.On("Create", mock.Anything, mock.Anything, "ghost@x.com").Return(nil, common.ErrUserNotFound)

	c, _ := postJSON(t, "/api/listings",
		`{"title":"Bike","description":"Good bike","listing_type":"SALE","price":50.0}`)
	asUser(c, "ghost@x.com")

	err := h.CreateListing(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func deleteRequest(t *testing.T, id string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/listings/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestDeleteListing_AsOwner(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	id := uuid.New()
	listingSvc.On("Delete", mock.Anything, id, "a@x.com").Return(nil)

	c, rec := deleteRequest(t, id.String())
	asUser(c, "a@x.com")

	require.NoError(t, h.DeleteListing(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteListing_NotOwner(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	id := uuid.New()
	listingSvc.On("Delete", mock.Anything, id, "other@x.com").Return(common.ErrNotAuthorized)

	c, _ := deleteRequest(t, id.String())
	asUser(c, "other@x.com")

	err := h.DeleteListing(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestDeleteListing_NotFound(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	id := uuid.New()
	listingSvc.On("Delete", mock.Anything, id, "a@x.com").Return(common.ErrListingNotFound)

	c, _ := deleteRequest(t, id.String())
	asUser(c, "a@x.com")

	err := h.DeleteListing(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestDeleteListing_InvalidID(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	c, _ := deleteRequest(t, "not-a-uuid")
	asUser(c, "a@x.com")

	err := h.DeleteListing(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	listingSvc.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func uploadRequest(t *testing.T, id, filename, contentType, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/listings/"+id+"/image", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestUploadListingImage_Success(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	id := uuid.New()
	url := "http://localhost:9000/listing-images/" + id.String()
	view := &models.ListingView{ID: id, Title: "Bike", ImageURL: &url}
	listingSvc.On("AttachImage", mock.Anything, id, "a@x.com", mock.Anything, mock.AnythingOfType("int64"), "image/jpeg").
		Return(view, nil)

	c, rec := uploadRequest(t, id.String(), "bike.jpg", "image/jpeg", strings.Repeat("x", 16))
	asUser(c, "a@x.com")

	require.NoError(t, h.UploadListingImage(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	listingSvc.AssertExpectations(t)
}

func TestUploadListingImage_RejectsNonImage(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	id := uuid.New()
	c, _ := uploadRequest(t, id.String(), "notes.txt", "text/plain", "hello")
	asUser(c, "a@x.com")

	err := h.UploadListingImage(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	listingSvc.AssertNotCalled(t, "AttachImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadListingImage_RequiresImageFile(t *testing.T) {
	listingSvc := &MockListingService{}
	h := NewListingHandlers(listingSvc)

	id := uuid.New()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/listings/"+id.String()+"/image", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	asUser(c, "a@x.com")

	err := h.UploadListingImage(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
