package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestFromUpstreamForwardsGoogleError(t *testing.T) {
	gerr := &googleapi.Error{Code: http.StatusNotFound, Message: "Requested entity was not found."}
	err := FromUpstream(fmt.Errorf("batch get: %w", gerr))

	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Equal(t, "Requested entity was not found.", MessageOf(err))
	assert.True(t, errors.Is(err, gerr))
}

func TestFromUpstreamWithoutMessage(t *testing.T) {
	err := FromUpstream(&googleapi.Error{Code: http.StatusBadGateway})
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, "Bad Gateway", MessageOf(err))
}

func TestFromUpstreamGeneric(t *testing.T) {
	err := FromUpstream(errors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFromUpstreamBreakerOpen(t *testing.T) {
	err := FromUpstream(fmt.Errorf("get: %w", gobreaker.ErrOpenState))
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
}

func TestFromUpstreamPassThrough(t *testing.T) {
	assert.Nil(t, FromUpstream(nil))
	nf := SheetNotFound()
	assert.Same(t, nf, FromUpstream(nf))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(MissingParameter("spreadsheetId")))
	assert.Equal(t, http.StatusForbidden, StatusOf(Unauthorized()))
	assert.Equal(t, http.StatusNotFound, StatusOf(SheetNotFound()))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(Upstream("x", 0, nil)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "Missing sheetName", MessageOf(MissingParameter("sheetName")))
}
