package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"Dormant/internal/config"
	"Dormant/internal/models"
	"Dormant/internal/provider"
)

type fakeProvider struct {
	kind      provider.Kind
	instances []*provider.Instance
	tags      map[string]string
}

func (f *fakeProvider) Name() string        { return string(f.kind) }
func (f *fakeProvider) Kind() provider.Kind { return f.kind }
func (f *fakeProvider) ListInstances(ctx context.Context) ([]*provider.Instance, error) {
	return f.instances, nil
}
func (f *fakeProvider) Tags(ctx context.Context, inst *provider.Instance) (map[string]string, error) {
	return f.tags, nil
}
func (f *fakeProvider) WriteTag(ctx context.Context, inst *provider.Instance, key, value string) error {
	return errors.New("unexpected write")
}
func (f *fakeProvider) Start(ctx context.Context, inst *provider.Instance) error { return nil }
func (f *fakeProvider) Stop(ctx context.Context, inst *provider.Instance) error  { return nil }
func (f *fakeProvider) HealthCheck(ctx context.Context) error                    { return nil }
func (f *fakeProvider) Close() error                                             { return nil }

func useFakeProviders(t *testing.T) {
	t.Helper()
	old := newProviders
	newProviders = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]provider.Provider, error) {
		return []provider.Provider{
			&fakeProvider{
				kind:      provider.KindCompute,
				instances: []*provider.Instance{{ID: "i-1", Kind: provider.KindCompute, State: "running"}},
				tags:      map[string]string{"schedule": "{}"},
			},
			&fakeProvider{
				kind:      provider.KindDatabase,
				instances: []*provider.Instance{{ID: "db-1", Kind: provider.KindDatabase, State: "available"}},
				tags:      map[string]string{"schedule": ""},
			},
		}, nil
	}
	t.Cleanup(func() { newProviders = old })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{
			name: "compute default",
			args: []string{"encode"},
			want: `{"mon":{"start":7,"stop":20},"tue":{"start":7,"stop":20},"wed":{"start":7,"stop":20},"thu":{"start":7,"stop":20},"fri":{"start":7,"stop":20}}`,
		},
		{
			name: "database default",
			args: []string{"encode", "--kind", "rds"},
			want: "mon_start=7 mon_stop=20 tue_start=7 tue_stop=20 wed_start=7 wed_stop=20 thu_start=7 thu_stop=20 fri_start=7 fri_stop=20",
		},
		{
			name: "database custom",
			args: []string{"encode", "--kind", "RDS", `{"sat":{"start":9}}`},
			want: "sat_start=9",
		},
		{
			name:    "unknown kind",
			args:    []string{"encode", "--kind", "lambda"},
			wantErr: "unknown kind",
		},
		{
			name:    "invalid schedule",
			args:    []string{"encode", "not json"},
			wantErr: "invalid nested schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestRunCommandJSON(t *testing.T) {
	useFakeProviders(t)
	t.Setenv("EXCLUDE", "")
	t.Setenv("RDS_SCHEDULE", "false")

	out, err := execute(t, "run", "--output", "json", "--dry-run", "--trigger", `{"source":"cli"}`)
	require.NoError(t, err)

	var summary models.PassSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.True(t, summary.DryRun)
	assert.Equal(t, `{"source":"cli"}`, summary.Trigger)
	require.Len(t, summary.Kinds, 2)
	assert.Equal(t, 1, summary.Kinds[0].Evaluated)
	assert.True(t, summary.Kinds[1].Skipped)
}

func TestRunCommandYAMLAndText(t *testing.T) {
	useFakeProviders(t)
	t.Setenv("EXCLUDE", "")

	out, err := execute(t, "run", "-o", "yaml")
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	assert.Contains(t, summary, "kinds")

	out, err = execute(t, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "Evaluated")
	assert.Contains(t, out, "ec2")
	assert.Contains(t, out, "rds")
}

func TestRunCommandErrors(t *testing.T) {
	useFakeProviders(t)

	t.Setenv("EXCLUDE", "")
	_, err := execute(t, "run", "--output", "xml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = execute(t, "run", "--trigger", "{")
	assert.ErrorContains(t, err, "--trigger")

	os.Unsetenv("EXCLUDE")
	_, err = execute(t, "run")
	assert.ErrorIs(t, err, config.ErrMissingExclusions)
}

func TestWriteTable(t *testing.T) {
	summary := models.PassSummary{
		ID:       "p-1",
		Day:      "mon",
		Hour:     7,
		TimeMode: "gmt",
		Kinds: []models.KindSummary{
			{Kind: "ec2", Evaluated: 2, Started: []string{"i-1"}, DecodeFailures: []string{"i-2"}},
			{Kind: "rds", Error: "AccessDenied"},
		},
		StartedAt: time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, outputText, summary))
	out := buf.String()

	assert.Contains(t, out, "Pass p-1: mon 07:00 (gmt, live)")
	assert.Contains(t, out, "i-1")
	assert.Contains(t, out, "i-2")
	assert.Contains(t, out, "list failed: AccessDenied")
}
