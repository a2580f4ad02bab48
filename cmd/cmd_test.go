package cmd

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deploymenttheory/go-dex-checksum/internal/config"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"github.com/spf13/pflag"
)

var (
	corrupted = []byte("dex\n035\x00\xff\xff\xff\xff\x01\x02\x03")
	repaired  = []byte("dex\n035\x00\x00\x0d\x00\x07\x01\x02\x03")
)

// resetConfig installs the default configuration for one test
func resetConfig(t *testing.T) {
	t.Helper()
	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := config.Load(empty)
	if err != nil {
		t.Fatal(err)
	}
	saved := config.Instance
	config.Instance = *cfg
	t.Cleanup(func() { config.Instance = saved })
}

func writeDex(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classes.dex")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the command line args with stdin and returns stdout
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetConfig(t)

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCurrentAndExpectChecksum(t *testing.T) {
	path := writeDex(t, corrupted)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"current-checksum", path}, "[255, 255, 255, 255]\n"},
		{[]string{"expect-checksum", path}, "[0, 13, 0, 7]\n"},
		{[]string{"expect-checksum", "--format", "hex", path}, "0x000d0007\n"},
		{[]string{"expect-checksum", "--byte-order", "little", path}, "[7, 0, 13, 0]\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[:len(tt.args)-1], " "), func(t *testing.T) {
			got, err := run(t, "", tt.args...)
			if err != nil {
				t.Fatalf("command failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInputFromStdin(t *testing.T) {
	path := writeDex(t, corrupted)

	for _, args := range [][]string{{"expect-checksum"}, {"expect-checksum", "-"}} {
		got, err := run(t, "  "+path+"\n", args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if got != "[0, 13, 0, 7]\n" {
			t.Errorf("%v: output = %q", args, got)
		}
	}
}

func TestEmptyStdinPath(t *testing.T) {
	_, err := run(t, "\n", "current-checksum")
	if !stderrors.Is(err, errors.ErrEmptyInputPath) {
		t.Errorf("expected ErrEmptyInputPath, got %v", err)
	}
}

func TestCorrectChecksum(t *testing.T) {
	path := writeDex(t, corrupted)

	got, err := run(t, "", "correct-checksum", path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "done.\n" {
		t.Errorf("first run output = %q", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, repaired) {
		t.Errorf("file not repaired: % x", data)
	}

	got, err = run(t, "", "correct-checksum", path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "nothing to do.\n" {
		t.Errorf("second run output = %q", got)
	}
}

func TestCorrectChecksumToOutputFromStdin(t *testing.T) {
	in := writeDex(t, repaired)
	out := filepath.Join(t.TempDir(), "copy.dex")

	got, err := run(t, in, "correct-checksum", "-", out)
	if err != nil {
		t.Fatal(err)
	}
	if got != "done.\n" {
		t.Errorf("output = %q", got)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output file not written: %v", err)
	}
}

func TestCheck(t *testing.T) {
	got, err := run(t, "", "check", writeDex(t, repaired))
	if err != nil || got != "valid\n" {
		t.Errorf("valid file: %q, %v", got, err)
	}

	got, err = run(t, "", "check", writeDex(t, corrupted))
	if !stderrors.Is(err, errors.ErrChecksumMismatch) || got != "invalid\n" {
		t.Errorf("corrupted file: %q, %v", got, err)
	}
}

func TestInspect(t *testing.T) {
	path := writeDex(t, corrupted)

	got, err := run(t, "", "inspect", "-r", "yaml", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "valid: false") || !strings.Contains(got, "0x000d0007") {
		t.Errorf("unexpected report:\n%s", got)
	}

	reportPath := filepath.Join(t.TempDir(), "report.json")
	if _, err := run(t, "", "inspect", "-o", reportPath, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"stored_checksum": "0xffffffff"`) {
		t.Errorf("unexpected report file:\n%s", data)
	}
}

func TestInspectQuery(t *testing.T) {
	got, err := run(t, "", "inspect", "-q", "expected_checksum", writeDex(t, corrupted))
	if err != nil {
		t.Fatal(err)
	}
	if got != "0x000d0007\n" {
		t.Errorf("output = %q", got)
	}

	if _, err := run(t, "", "inspect", "-q", "nope", writeDex(t, corrupted)); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLookupRequiresAPIKey(t *testing.T) {
	_, err := run(t, "", "lookup", writeDex(t, repaired))
	if !stderrors.Is(err, errors.ErrAPIKeyMissing) {
		t.Errorf("expected ErrAPIKeyMissing, got %v", err)
	}
}

func TestWorkflow(t *testing.T) {
	path := writeDex(t, corrupted)
	wf := filepath.Join(t.TempDir(), "workflow.yaml")
	body := "name: repair\ninput: " + path + "\nsteps:\n" +
		"  - name: fix\n    type: correct\n" +
		"  - name: verify\n    type: check\n"
	if err := os.WriteFile(wf, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	for _, args := range [][]string{{"run", wf}, {"--workflow", wf}} {
		got, err := run(t, "", args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if !strings.HasSuffix(got, "verify: valid\n") {
			t.Errorf("%v: output = %q", args, got)
		}
	}
}

func TestInvalidFlagValue(t *testing.T) {
	_, err := run(t, "", "expect-checksum", "--byte-order", "middle", writeDex(t, repaired))
	if !stderrors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestConfigShowRedactsKey(t *testing.T) {
	resetConfig(t)
	config.Instance.VirusTotal.APIKey = "secret"

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "secret") || !strings.Contains(out.String(), "byte_order: big") {
		t.Errorf("unexpected config output:\n%s", out.String())
	}
}

func TestVersion(t *testing.T) {
	got, err := run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, config.AppName+" v") {
		t.Errorf("output = %q", got)
	}
}

func TestOverrideConfigOnlyChangedFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("debug", false, "")
	flags.String("log-format", "", "")
	flags.String("byte-order", "", "")
	flags.String("format", "", "")
	if err := flags.Parse([]string{"--byte-order", "little", "--debug"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.AppConfig{LogFormat: "json"}
	cfg.Output.Format = "hex"
	overrideConfig(flags, &cfg)

	if !cfg.Debug || cfg.Checksum.ByteOrder != "little" {
		t.Errorf("changed flags not applied: %+v", cfg)
	}
	if cfg.LogFormat != "json" || cfg.Output.Format != "hex" {
		t.Errorf("unchanged flags overrode config: %+v", cfg)
	}
}
