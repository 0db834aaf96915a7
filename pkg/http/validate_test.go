package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handReq struct {
	Cards []string `json:"cards" validate:"oneoflen=0 2,dive,min=2,max=3"`
	Limit int      `json:"limit" default:"50" validate:"gte=1,lte=100"`
}

func bindJSON(t *testing.T, body string, dst interface{}) interface{} {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return ReadAndValidateRequest(e.NewContext(req, httptest.NewRecorder()), dst)
}

func TestOneOfLen(t *testing.T) {
	for _, body := range []string{`{}`, `{"cards":[]}`, `{"cards":["As","Kd"]}`} {
		assert.Nil(t, bindJSON(t, body, &handReq{}), body)
	}

	verr := bindJSON(t, `{"cards":["As"]}`, &handReq{})
	require.NotNil(t, verr)
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_ONEOFLEN", errs[0].Code)
	assert.Equal(t, "cards", errs[0].Field)
	assert.Equal(t, "cards must contain 0 or 2 entries", errs[0].Message)
}

func TestReadAndValidateAppliesDefaults(t *testing.T) {
	req := &handReq{}
	require.Nil(t, bindJSON(t, `{"cards":[]}`, req))
	assert.Equal(t, 50, req.Limit)

	assert.NotNil(t, bindJSON(t, `{"limit":500}`, &handReq{}))
}

func TestReadAndValidateMalformedBody(t *testing.T) {
	verr := bindJSON(t, `{"cards":`, &handReq{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}

func TestDataResponseUsesStatus(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, AppErrorResponse(c, TooManyRequestsError("slow down")))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_TOO_MANY_REQUESTS")
}
