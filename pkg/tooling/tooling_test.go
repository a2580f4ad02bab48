package tooling

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
)

func TestMain(m *testing.M) {
	// keep the search away from any real user configuration
	os.Setenv("DEX_CHECKSUM_DEV", "true")
	if err := Initialize(InitOptions{SuppressLog: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func writeDex(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classes.dex")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckAndCorrect(t *testing.T) {
	path := writeDex(t, []byte("dex\n035\x00\xff\xff\xff\xff\x01\x02\x03"))

	before, err := Check(path)
	if err != nil {
		t.Fatal(err)
	}
	if before.Valid || before.Stored != "0xffffffff" || before.Expected != "0x000d0007" {
		t.Errorf("unexpected check result %+v", before)
	}

	result, err := Correct(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Corrected || !result.Written {
		t.Errorf("unexpected correct result %+v", result)
	}

	after, err := Check(path)
	if err != nil {
		t.Fatal(err)
	}
	if !after.Valid {
		t.Errorf("file still invalid after Correct: %+v", after)
	}
}

func TestInspect(t *testing.T) {
	path := writeDex(t, []byte("dex\n035\x00\x00\x0d\x00\x07\x01\x02\x03"))

	var buf bytes.Buffer
	if err := Inspect(&buf, path, "json"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"valid": true`) {
		t.Errorf("unexpected report:\n%s", buf.String())
	}
}

func TestExecuteWorkflow(t *testing.T) {
	path := writeDex(t, []byte("dex\n035\x00\xff\xff\xff\xff\x01\x02\x03"))
	wf := filepath.Join(t.TempDir(), "workflow.yaml")
	body := "name: fix\ninput: " + path + "\nsteps:\n  - name: fix\n    type: correct\n"
	if err := os.WriteFile(wf, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	result, err := ExecuteWorkflow(context.Background(), wf, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success || out.String() != "fix: done.\n" {
		t.Errorf("unexpected result %+v, output %q", result, out.String())
	}
	if fix, ok := result.Variables["fix"].(map[string]interface{}); !ok || fix["corrected"] != true {
		t.Errorf("fix variables = %v", result.Variables["fix"])
	}
}

func TestLookupRequiresAPIKey(t *testing.T) {
	key := config.Instance.VirusTotal.APIKey
	config.Instance.VirusTotal.APIKey = ""
	t.Cleanup(func() { config.Instance.VirusTotal.APIKey = key })

	path := writeDex(t, []byte("dex\n035\x00\x00\x0d\x00\x07\x01\x02\x03"))
	if _, err := Lookup(context.Background(), path); !stderrors.Is(err, errors.ErrAPIKeyMissing) {
		t.Errorf("expected ErrAPIKeyMissing, got %v", err)
	}
}

func TestLookupClientIsShared(t *testing.T) {
	key := config.Instance.VirusTotal.APIKey
	t.Cleanup(func() { config.Instance.VirusTotal.APIKey = key })

	config.Instance.VirusTotal.APIKey = "first"
	a, err := lookupClient()
	if err != nil {
		t.Fatal(err)
	}
	b, err := lookupClient()
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("lookups with the same key did not share a client")
	}

	config.Instance.VirusTotal.APIKey = "second"
	c, err := lookupClient()
	if err != nil {
		t.Fatal(err)
	}
	if c == a {
		t.Error("client was not replaced after the API key changed")
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("GetVersion() = %s", GetVersion())
	}
}
