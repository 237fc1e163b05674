package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendsWithoutURLUsesBuiltIn(t *testing.T) {
	s := NewTrendsService("")
	tips := s.Tips(context.Background())
	assert.Equal(t, staticTrendTips, tips)
}

func TestTrendsScrapeAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html><body>
			<div class="trend-item"> Хлопок-переход </div>
			<ul><li class="trend">Зум на деталь</li></ul>
		</body></html>`))
	}))
	defer srv.Close()

	s := NewTrendsService(srv.URL)

	tips := s.Tips(context.Background())
	require.Len(t, tips, 2)
	assert.Equal(t, "Хлопок-переход", tips[0])
	assert.Equal(t, "Зум на деталь", tips[1])

	// Second call is served from the TTL cache.
	tips = s.Tips(context.Background())
	require.Len(t, tips, 2)
	assert.Equal(t, int32(1), hits.Load())
}

func TestTrendsFetchFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewTrendsService(srv.URL)
	tips := s.Tips(context.Background())
	assert.Equal(t, staticTrendTips, tips)
}

func TestTrendsEmptyPageFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>ничего интересного</p></body></html>`))
	}))
	defer srv.Close()

	s := NewTrendsService(srv.URL)
	tips := s.Tips(context.Background())
	assert.Equal(t, staticTrendTips, tips)
}
