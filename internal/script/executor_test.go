package script

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dashcore/pkg/domain"

	"github.com/google/go-cmp/cmp"
)

const regionTotals = `package main

import "fmt"

func Transform(data map[string][]map[string]any) ([]map[string]any, error) {
	totals := map[string]float64{}
	for _, r := range data["revenue"] {
		totals[r["region"].(string)] += r["gross"].(float64)
	}
	fmt.Println("regions:", len(totals))
	out := []map[string]any{}
	for _, region := range []string{"APAC", "Europe"} {
		out = append(out, map[string]any{"region": region, "gross": totals[region]})
	}
	return out, nil
}
`

func sampleData() map[string][]map[string]any {
	return map[string][]map[string]any{
		"revenue": {
			{"region": "Europe", "gross": 10.0},
			{"region": "Europe", "gross": 5.0},
			{"region": "APAC", "gross": 2.5},
		},
	}
}

func TestExecuteTransformsRecords(t *testing.T) {
	res, err := NewExecutor().Execute(context.Background(), regionTotals, sampleData())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := []domain.Record{
		{"region": "APAC", "gross": 2.5},
		{"region": "Europe", "gross": 15.0},
	}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
	if strings.TrimSpace(res.Console) != "regions: 2" {
		t.Fatalf("unexpected console %q", res.Console)
	}
}

func TestExecuteWrapsBareSource(t *testing.T) {
	src := `func Transform(data map[string][]map[string]any) ([]map[string]any, error) {
	return data["revenue"][:1], nil
}`
	res, err := NewExecutor().Execute(context.Background(), src, sampleData())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0]["region"] != "Europe" {
		t.Fatalf("unexpected records %v", res.Records)
	}
}

func TestExecuteRejectsForbiddenImports(t *testing.T) {
	src := `package main

import (
	"fmt"
	"os"
	exec "os/exec"
)

func Transform(data map[string][]map[string]any) ([]map[string]any, error) {
	fmt.Println(os.Args, exec.ErrNotFound)
	return nil, nil
}
`
	_, err := NewExecutor().Execute(context.Background(), src, nil)
	if !errors.Is(err, ErrForbiddenImport) {
		t.Fatalf("expected ErrForbiddenImport, got %v", err)
	}
	if !strings.Contains(err.Error(), "os, os/exec") {
		t.Fatalf("expected both imports reported, got %v", err)
	}
}

func TestWithAllowedImportsExtendsWhitelist(t *testing.T) {
	e := NewExecutor(WithAllowedImports("os"))
	if err := e.validateImports("package main\nimport \"os\"\n"); err != nil {
		t.Fatalf("expected os to be allowed: %v", err)
	}
	found := false
	for _, p := range e.AllowedImports() {
		if p == "os" {
			found = true
		}
	}
	if !found {
		t.Fatalf("os missing from %v", e.AllowedImports())
	}
}

func TestExecuteEntryPointErrors(t *testing.T) {
	cases := map[string]string{
		"missing":    "package main\n\nfunc Other() {}\n",
		"wrong type": "package main\n\nfunc Transform(s string) string { return s }\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewExecutor().Execute(context.Background(), src, nil)
			if !errors.Is(err, ErrBadEntryPoint) {
				t.Fatalf("expected ErrBadEntryPoint, got %v", err)
			}
		})
	}
}

func TestExecuteSurfacesScriptErrors(t *testing.T) {
	src := `package main

import (
	"errors"
	"fmt"
)

func Transform(data map[string][]map[string]any) ([]map[string]any, error) {
	fmt.Print("checking")
	return nil, errors.New("no revenue")
}
`
	res, err := NewExecutor(WithAllowedImports("errors")).Execute(context.Background(), src, nil)
	if err == nil || !strings.Contains(err.Error(), "no revenue") {
		t.Fatalf("expected script error, got %v", err)
	}
	if res.Console != "checking" {
		t.Fatalf("expected console kept on failure, got %q", res.Console)
	}
}

func TestExecuteSyntaxError(t *testing.T) {
	if _, err := NewExecutor().Execute(context.Background(), "package main\nfunc Transform(", nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestExecuteTimesOut(t *testing.T) {
	src := `package main

import "time"

func Transform(data map[string][]map[string]any) ([]map[string]any, error) {
	time.Sleep(time.Minute)
	return nil, nil
}
`
	start := time.Now()
	_, err := NewExecutor(WithTimeout(50*time.Millisecond)).Execute(context.Background(), src, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout not enforced")
	}
}
