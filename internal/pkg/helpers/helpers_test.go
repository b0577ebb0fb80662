package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		page, size int
		offset     uint64
		limit      int
	}{
		{1, 10, 0, 10},
		{3, 25, 50, 25},
		{0, 10, 0, 10},
		{2, 0, DefaultPageSize, DefaultPageSize},
		{2, MaxPageSize + 1, DefaultPageSize, DefaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := CalculateOffsetLimit(tt.page, tt.size)
		if offset != tt.offset || limit != tt.limit {
			t.Errorf("CalculateOffsetLimit(%d, %d): expected %d/%d, got %d/%d", tt.page, tt.size, tt.offset, tt.limit, offset, limit)
		}
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(45, 2, 20)
	if info.TotalPages != 3 || info.CurrentPage != 2 || info.TotalItems != 45 {
		t.Errorf("Unexpected pagination %+v", info)
	}

	empty := NewPaginationInfo(0, 1, 20)
	if empty.TotalPages != 1 || empty.CurrentPage != 1 {
		t.Errorf("Expected a single empty page, got %+v", empty)
	}

	past := NewPaginationInfo(5, 9, 20)
	if past.CurrentPage != 1 {
		t.Errorf("Expected current page clamped to 1, got %d", past.CurrentPage)
	}
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := map[string][2]int{
		"/?page=2&size=50": {2, 50},
		"/":                {DefaultPage, DefaultPageSize},
		"/?page=-1&size=x": {DefaultPage, DefaultPageSize},
		"/?size=1000":      {DefaultPage, DefaultPageSize},
	}
	for url, want := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", url, nil)
		page, size := ParsePaginationParams(c)
		if page != want[0] || size != want[1] {
			t.Errorf("%s: expected %v, got %d/%d", url, want, page, size)
		}
	}
}

func TestParseDuration(t *testing.T) {
	if got := ParseDuration("90s", time.Minute); got != 90*time.Second {
		t.Errorf("Expected 90s, got %v", got)
	}
	if got := ParseDuration("soon", time.Minute); got != time.Minute {
		t.Errorf("Expected default, got %v", got)
	}
}

func TestNullStrings(t *testing.T) {
	if GetNullString(nil).Valid {
		t.Error("Expected nil to map to NULL")
	}
	s := "note"
	if ns := GetNullString(&s); !ns.Valid || ns.String != "note" {
		t.Errorf("Unexpected NullString %+v", ns)
	}
}
