package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"apartadmin/internal/alerts"
	"apartadmin/internal/apiclient"
	"apartadmin/internal/imagehost"
	"apartadmin/internal/models"
	"apartadmin/internal/session"
	"apartadmin/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApartmentAPI struct {
	listFn   func(ctx context.Context) ([]apiclient.ApartmentRecord, error)
	createFn func(ctx context.Context, draft models.Apartment) (apiclient.ApartmentRecord, error)
	updateFn func(ctx context.Context, a models.Apartment) (apiclient.ApartmentRecord, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeApartmentAPI) List(ctx context.Context) ([]apiclient.ApartmentRecord, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeApartmentAPI) Create(ctx context.Context, draft models.Apartment) (apiclient.ApartmentRecord, error) {
	if f.createFn == nil {
		return apiclient.ApartmentRecord{}, errors.New("create not stubbed")
	}
	return f.createFn(ctx, draft)
}

func (f *fakeApartmentAPI) Update(ctx context.Context, a models.Apartment) (apiclient.ApartmentRecord, error) {
	if f.updateFn == nil {
		return apiclient.ApartmentRecord{}, errors.New("update not stubbed")
	}
	return f.updateFn(ctx, a)
}

func (f *fakeApartmentAPI) Delete(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return errors.New("delete not stubbed")
	}
	return f.deleteFn(ctx, id)
}

type fakeDiscountAPI struct {
	listFn func(ctx context.Context) ([]models.Discount, error)
	saveFn func(ctx context.Context, d models.Discount) (models.Discount, error)
}

func (f *fakeDiscountAPI) List(ctx context.Context) ([]models.Discount, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeDiscountAPI) Save(ctx context.Context, d models.Discount) (models.Discount, error) {
	if f.saveFn == nil {
		return models.Discount{}, errors.New("save not stubbed")
	}
	return f.saveFn(ctx, d)
}

func (f *fakeDiscountAPI) Delete(context.Context, string) error { return nil }

type fakeReservationAPI struct {
	failed []models.FailedReservation
}

func (f *fakeReservationAPI) ListFailed(context.Context) ([]models.FailedReservation, error) {
	return f.failed, nil
}
func (f *fakeReservationAPI) RetrySync(context.Context, string) error         { return nil }
func (f *fakeReservationAPI) MarkResolved(context.Context, string, string) error { return nil }

type fakeDateAPI struct {
	blocked []models.BlockedDate
}

func (f *fakeDateAPI) ListBlockedDates(context.Context, string) ([]models.BlockedDate, error) {
	return f.blocked, nil
}

func (f *fakeDateAPI) CreateBlockedDate(_ context.Context, b models.BlockedDate) (models.BlockedDate, error) {
	b.ID = "bd-1"
	return b, nil
}

func (f *fakeDateAPI) DeleteBlockedDate(context.Context, string) error { return nil }

func (f *fakeDateAPI) ListPriceOverrides(context.Context, string) ([]models.PriceOverride, error) {
	return nil, nil
}

func (f *fakeDateAPI) CreatePriceOverride(_ context.Context, o models.PriceOverride) (models.PriceOverride, error) {
	o.ID = "po-1"
	return o, nil
}

func (f *fakeDateAPI) DeletePriceOverride(context.Context, string) error { return nil }

type fakeAuth struct {
	token string
	err   error
}

func (f *fakeAuth) Login(context.Context, string, string) (string, error) {
	return f.token, f.err
}

type fakeUploader struct {
	urls []string
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, files []imagehost.File) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.urls != nil {
		return f.urls, nil
	}
	out := make([]string, len(files))
	for i, file := range files {
		out[i] = "https://cdn.example.com/" + file.Name
	}
	return out, nil
}

func apt(id, city string, order int) models.Apartment {
	return models.Apartment{
		ID:           id,
		Name:         "Apt " + id,
		City:         city,
		Price:        100,
		Currency:     models.CurrencyRON,
		Status:       models.StatusAvailable,
		DisplayOrder: order,
	}
}

type fixture struct {
	server     *Server
	router     http.Handler
	sess       *session.Session
	apartments *fakeApartmentAPI
}

func newFixture(t *testing.T, apartments *fakeApartmentAPI, discounts *fakeDiscountAPI) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	sess := session.New("tok", "key")

	if apartments == nil {
		apartments = &fakeApartmentAPI{}
	}
	if discounts == nil {
		discounts = &fakeDiscountAPI{}
	}

	listing := store.NewListing(apartments, discounts, nil, &logger)
	watcher := alerts.NewWatcher(alerts.DefaultConfig(), &fakeReservationAPI{}, &logger)

	srv := New(sess, &fakeAuth{token: "tok"}, listing, watcher, &fakeDateAPI{}, &fakeUploader{}, nil, &logger)
	return &fixture{
		server:     srv,
		router:     srv.Router(nil),
		sess:       sess,
		apartments: apartments,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRequireSession(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.sess.Invalidate()

	rec := f.do(t, http.MethodGet, "/api/apartments/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["error"], "log in again")
}

func TestHandleLogin(t *testing.T) {
	apartments := &fakeApartmentAPI{
		listFn: func(context.Context) ([]apiclient.ApartmentRecord, error) {
			return []apiclient.ApartmentRecord{{Apartment: apt("a", "Cluj", 0), OrderSet: true}}, nil
		},
	}
	f := newFixture(t, apartments, nil)
	f.sess.Invalidate()

	rec := f.do(t, http.MethodPost, "/login", map[string]string{"username": "admin", "password": "pw"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.sess.Valid())
	assert.True(t, f.server.listing.Loaded(), "login warms the listing")
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.sess.Invalidate()
	f.server.auth = &fakeAuth{err: errors.New("bad credentials")}

	rec := f.do(t, http.MethodPost, "/login", map[string]string{"username": "admin", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, f.sess.Valid())
}

func TestHandleLogin_MissingFields(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := f.do(t, http.MethodPost, "/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogout(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := f.do(t, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.sess.Valid())
}

func TestHandleListApartments_GroupsByCity(t *testing.T) {
	apartments := &fakeApartmentAPI{
		listFn: func(context.Context) ([]apiclient.ApartmentRecord, error) {
			return []apiclient.ApartmentRecord{
				{Apartment: apt("c1", "Cluj", 0), OrderSet: true},
				{Apartment: apt("b1", "Brasov", 1), OrderSet: true},
			}, nil
		},
	}
	f := newFixture(t, apartments, nil)

	rec := f.do(t, http.MethodGet, "/api/apartments/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	assert.Equal(t, float64(2), body["total"])
	cities := body["cities"].([]interface{})
	require.Len(t, cities, 2)
	assert.Equal(t, "Brasov", cities[0].(map[string]interface{})["city"])
}

func TestHandleSaveApartment_Validation(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec := f.do(t, http.MethodPost, "/api/apartments/", map[string]string{"name": "No City"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSwap(t *testing.T) {
	apartments := &fakeApartmentAPI{
		listFn: func(context.Context) ([]apiclient.ApartmentRecord, error) {
			return []apiclient.ApartmentRecord{
				{Apartment: apt("a", "Cluj", 0), OrderSet: true},
				{Apartment: apt("b", "Cluj", 1), OrderSet: true},
			}, nil
		},
		updateFn: func(_ context.Context, a models.Apartment) (apiclient.ApartmentRecord, error) {
			return apiclient.ApartmentRecord{Apartment: a, OrderSet: true}, nil
		},
	}
	f := newFixture(t, apartments, nil)
	require.NoError(t, f.server.listing.Load(context.Background()))

	rec := f.do(t, http.MethodPost, "/api/apartments/reorder", map[string]string{"a": "a", "b": "b"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	assert.Equal(t, "applied", body["outcome"])
	assert.NotEmpty(t, body["cities"])
}

func TestHandleSwap_CrossCity(t *testing.T) {
	apartments := &fakeApartmentAPI{
		listFn: func(context.Context) ([]apiclient.ApartmentRecord, error) {
			return []apiclient.ApartmentRecord{
				{Apartment: apt("a", "Cluj", 0), OrderSet: true},
				{Apartment: apt("b", "Brasov", 1), OrderSet: true},
			}, nil
		},
	}
	f := newFixture(t, apartments, nil)
	require.NoError(t, f.server.listing.Load(context.Background()))

	rec := f.do(t, http.MethodPost, "/api/apartments/reorder", map[string]string{"a": "a", "b": "b"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot move apartment to a different city.", decodeMap(t, rec)["error"])
}

func TestHandleSwap_PartialFailure(t *testing.T) {
	apartments := &fakeApartmentAPI{
		listFn: func(context.Context) ([]apiclient.ApartmentRecord, error) {
			return []apiclient.ApartmentRecord{
				{Apartment: apt("a", "Cluj", 0), OrderSet: true},
				{Apartment: apt("b", "Cluj", 1), OrderSet: true},
			}, nil
		},
		updateFn: func(_ context.Context, a models.Apartment) (apiclient.ApartmentRecord, error) {
			if a.ID == "b" {
				return apiclient.ApartmentRecord{}, errors.New("persist failed")
			}
			return apiclient.ApartmentRecord{Apartment: a, OrderSet: true}, nil
		},
	}
	f := newFixture(t, apartments, nil)
	require.NoError(t, f.server.listing.Load(context.Background()))

	rec := f.do(t, http.MethodPost, "/api/apartments/reorder", map[string]string{"a": "a", "b": "b"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	body := decodeMap(t, rec)
	assert.Equal(t, "partial_failure", body["outcome"])
	assert.Equal(t, []interface{}{"b"}, body["failedIds"])
}

func TestHandleMove_BadDirection(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec := f.do(t, http.MethodPost, "/api/apartments/a/move", map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateBlockedDate_Validation(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec := f.do(t, http.MethodPost, "/api/apartments/a/blocked-dates", map[string]string{
		"startDate": "2026-09-10T00:00:00Z",
		"endDate":   "2026-09-01T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateBlockedDate(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec := f.do(t, http.MethodPost, "/api/apartments/a/blocked-dates", map[string]string{
		"startDate": "2026-09-01T00:00:00Z",
		"endDate":   "2026-09-10T00:00:00Z",
		"reason":    "maintenance",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bd-1", decodeMap(t, rec)["id"])
}

func TestHandleCreatePriceOverride_NegativePrice(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec := f.do(t, http.MethodPost, "/api/apartments/a/price-overrides", map[string]interface{}{
		"startDate": "2026-09-01T00:00:00Z",
		"endDate":   "2026-09-10T00:00:00Z",
		"price":     -10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListAlerts(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec := f.do(t, http.MethodGet, "/api/alerts/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	_, ok := body["failedReservations"]
	assert.True(t, ok)
}

func TestHandleUploadImages(t *testing.T) {
	apartments := &fakeApartmentAPI{
		listFn: func(context.Context) ([]apiclient.ApartmentRecord, error) {
			return []apiclient.ApartmentRecord{{Apartment: apt("a", "Cluj", 0), OrderSet: true}}, nil
		},
		updateFn: func(_ context.Context, a models.Apartment) (apiclient.ApartmentRecord, error) {
			return apiclient.ApartmentRecord{Apartment: a, OrderSet: true}, nil
		},
	}
	f := newFixture(t, apartments, nil)
	require.NoError(t, f.server.listing.Load(context.Background()))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("images", "front.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/apartments/a/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	images := decodeMap(t, rec)["images"].([]interface{})
	require.Len(t, images, 1)
	assert.Equal(t, "https://cdn.example.com/front.jpg", images[0])

	got, ok := f.server.listing.Apartment("a")
	require.True(t, ok)
	assert.Equal(t, []string{"https://cdn.example.com/front.jpg"}, got.Images)
}

func TestHandleUploadImages_UnknownApartment(t *testing.T) {
	f := newFixture(t, nil, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_, err := mw.CreateFormFile("images", "x.jpg")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/apartments/ghost/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListAudit_Disabled(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec := f.do(t, http.MethodGet, "/api/audit", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
