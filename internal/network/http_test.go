package network

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoGetReturnsBodyAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<Status>GREEN</Status>"))
	}))
	defer srv.Close()

	f := NewClientFactory(2 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	body, status, err := f.Do(ctx, "GET", srv.URL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "<Status>GREEN</Status>", string(body))
}

func TestDoPostSetsContentMD5AndType(t *testing.T) {
	var gotMD5, gotType, gotUA string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMD5 = r.Header.Get("Content-MD5")
		gotType = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewClientFactory(2 * time.Second)
	_, status, err := f.Do(context.Background(), "POST", srv.URL, []byte("Action=GetServiceStatus"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, gotMD5)
	require.Equal(t, "text/xml", gotType)
	require.Equal(t, userAgent, gotUA)
	require.Equal(t, "Action=GetServiceStatus", string(gotBody))
}

func TestDoTransportErrorOnConnectionFailure(t *testing.T) {
	f := NewClientFactory(200 * time.Millisecond)
	_, _, err := f.Do(context.Background(), "GET", "http://127.0.0.1:1/", nil)
	require.Error(t, err)
}
