package seed

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/pkg/catalog"
)

func TestWarmCatalogLogsSnapshot(t *testing.T) {
	var buf bytes.Buffer
	lgr := zerolog.New(&buf)
	provider := catalog.NewCachedProvider(catalog.NewStaticSource(nil), catalog.Options{Logger: zerolog.Nop()})

	WarmCatalog(context.Background(), provider, lgr)

	out := buf.String()
	if !strings.Contains(out, `"message":"Catalog ready"`) {
		t.Fatalf("Expected ready log, got %s", out)
	}
	if !strings.Contains(out, `"source":"static"`) || !strings.Contains(out, `"countries":3`) {
		t.Errorf("Expected static source with 3 countries, got %s", out)
	}
}
