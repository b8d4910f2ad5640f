package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/transition"
)

const testConfig = `name: shop
base: /shop
defaultRoute: home
routes:
  - name: home
    path: /
  - name: users
    path: /users
    children:
      - name: view
        path: /view/:id<\d+>
  - name: orders
    path: /orders
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waypoint.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// execute runs the CLI with args against the test configuration.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := writeConfig(t, testConfig)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&rootOptions{})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", path}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func diagnosticCode(err error) string {
	var d *errors.Diagnostic
	if stderrors.As(err, &d) {
		return d.Code
	}
	return ""
}

func TestMatch(t *testing.T) {
	out, err := execute(t, "match", "/users/view/12")
	if err != nil {
		t.Fatalf("match error = %v", err)
	}
	if !strings.HasPrefix(out, "users.view\n") {
		t.Errorf("match output = %q, want users.view first", out)
	}
	if !strings.Contains(out, "id = 12") {
		t.Errorf("match output = %q, want id = 12", out)
	}
}

func TestMatchJSON(t *testing.T) {
	out, err := execute(t, "--json", "match", "/orders")
	if err != nil {
		t.Fatalf("match error = %v", err)
	}
	var state struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(out), &state); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", out, err)
	}
	if state.Name != "orders" || state.Path != "/orders" {
		t.Errorf("state = %+v, want orders at /orders", state)
	}
}

func TestMatchNotFound(t *testing.T) {
	_, err := execute(t, "match", "/users/view/abc")
	if code := diagnosticCode(err); code != "W141" {
		t.Errorf("match error code = %q, want W141 (err = %v)", code, err)
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
		code string
	}{
		{"path", []string{"build", "users.view", "id=12"}, "/users/view/12\n", ""},
		{"url", []string{"build", "users.view", "id=12", "--url"}, "/shop/users/view/12\n", ""},
		{"missing param", []string{"build", "users.view"}, "", "W106"},
		{"constraint", []string{"build", "users.view", "id=abc"}, "", "W107"},
		{"unknown route", []string{"build", "nope"}, "", "W105"},
		{"bad argument", []string{"build", "users.view", "id"}, "", "W140"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.code != "" {
				if err == nil {
					t.Fatalf("error = nil, want %s", tt.code)
				}
				if code := errors.Classify(err, "").Code; code != tt.code {
					t.Errorf("error code = %q, want %q (err = %v)", code, tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("build error = %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestTree(t *testing.T) {
	out, err := execute(t, "tree")
	if err != nil {
		t.Fatalf("tree error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"orders", "users", "  view", "home"}
	if len(lines) != len(want) {
		t.Fatalf("tree lines = %q, want %d lines", lines, len(want))
	}
	for i, prefix := range want {
		if !strings.HasPrefix(lines[i], prefix+" ") {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
	if !strings.Contains(lines[2], `/users/view/:id<\d+>`) {
		t.Errorf("view line = %q, want full pattern", lines[2])
	}
}

func TestPlan(t *testing.T) {
	out, err := execute(t, "--json", "plan", "orders", "users.view")
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}
	var path transition.Path
	if err := json.Unmarshal([]byte(out), &path); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", out, err)
	}
	if path.Intersection != "" {
		t.Errorf("Intersection = %q, want empty", path.Intersection)
	}
	if strings.Join(path.ToDeactivate, ",") != "users.view,users" {
		t.Errorf("ToDeactivate = %v, want [users.view users]", path.ToDeactivate)
	}
	if strings.Join(path.ToActivate, ",") != "orders" {
		t.Errorf("ToActivate = %v, want [orders]", path.ToActivate)
	}

	if _, err := execute(t, "plan", "nope"); diagnosticCode(err) != "W105" {
		t.Errorf("plan unknown error = %v, want W105", err)
	}
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate")
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "shop is valid (4 routes)") {
		t.Errorf("validate output = %q", out)
	}
}

func TestValidateInvalid(t *testing.T) {
	path := writeConfig(t, "routes:\n  - name: home\n    path: /\n  - name: home\n    path: /again\n")

	cmd := newRootCmd(&rootOptions{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "validate"})
	err := cmd.Execute()
	if code := diagnosticCode(err); code != "W102" {
		t.Errorf("validate error code = %q, want W102 (err = %v)", code, err)
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"id=1", "q=a=b", "empty="})
	if err != nil {
		t.Fatalf("parseParams() error = %v", err)
	}
	if params["id"] != "1" || params["q"] != "a=b" || params["empty"] != "" {
		t.Errorf("parseParams() = %v", params)
	}
	if _, err := parseParams([]string{"=x"}); err == nil {
		t.Error("parseParams(=x) error = nil, want error")
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, &rootOptions{json: true}, errors.New("W141").WithDetail("/nope"))

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", buf.String(), err)
	}
	if got["code"] != "W141" {
		t.Errorf("code = %v, want W141", got["code"])
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&rootOptions{})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version error = %v", err)
	}
	if out.String() != version+"\n" {
		t.Errorf("version output = %q, want %q", out.String(), version+"\n")
	}
}
