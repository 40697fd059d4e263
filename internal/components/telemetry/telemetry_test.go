package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	tel := NewScopedAPI("casp16", rec)

	tel.ReportBroken("client.list-index", "boom")
	tel.ReportWarning("pipeline.no-tarballs")
	tel.ReportCount("sequences", 3)

	broken := rec.Reports(KindBroken)
	require.Len(t, broken, 1)
	require.Equal(t, "casp16:client.list-index", broken[0].Id)
	require.Equal(t, []any{"boom"}, broken[0].Params)

	require.True(t, rec.Has(KindWarning, "pipeline.no-tarballs"))
	require.False(t, rec.Has(KindBroken, "pipeline.no-tarballs"))

	counts := rec.Reports(KindCount)
	require.Len(t, counts, 1)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestInstrumentResty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(">T1152\nMKV\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	rec := NewRecorder()
	client := resty.New()
	InstrumentResty(client, rec, output)

	res, err := client.R().Get(srv.URL + "/casp15/target.cgi")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	require.True(t, rec.Has(KindDebug, report_resty_request))
	require.True(t, rec.Has(KindDebug, report_resty_response))

	dump, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(dump), "GET "+srv.URL+"/casp15/target.cgi")
	require.Contains(t, string(dump), ">T1152")
}

func TestInstrumentRestyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := NewRecorder()
	client := resty.New()
	InstrumentResty(client, rec, nil)

	_, err := client.R().Get(url)
	require.Error(t, err)
	require.True(t, rec.Has(KindBroken, report_resty_response))
}

func TestSetupWithoutEndpoint(t *testing.T) {
	exporters, err := Setup(context.Background(), "test:telemetry", OtlpConfig{})
	require.NoError(t, err)
	require.False(t, exporters.MetricsEnabled())
	require.NoError(t, exporters.Shutdown(context.Background()))
}

func TestMeterAPI(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() {
		provider.Shutdown(context.Background())
	})

	rec := NewRecorder()
	tel, err := NewMeterAPI(rec, provider.Meter("test"))
	require.NoError(t, err)

	scoped := NewScopedAPI("casp15", tel)
	scoped.ReportCount("fastas.sequences", 4)
	scoped.ReportCount("fastas.sequences", 7)
	scoped.ReportInfo("forwarded")

	require.Len(t, rec.Reports(KindCount), 2)
	require.True(t, rec.Has(KindInfo, "forwarded"))

	var collected metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &collected))
	require.Len(t, collected.ScopeMetrics, 1)
	require.Len(t, collected.ScopeMetrics[0].Metrics, 1)

	gauge, ok := collected.ScopeMetrics[0].Metrics[0].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	require.Equal(t, int64(7), gauge.DataPoints[0].Value)

	id, ok := gauge.DataPoints[0].Attributes.Value(attribute.Key("id"))
	require.True(t, ok)
	require.Equal(t, "casp15:fastas.sequences", id.AsString())
}
