// cmd/tools/catalog-check/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"counseling-workers/internal/catalog"
	"counseling-workers/internal/models"
	"counseling-workers/pkg/registry"
)

func main() {
	catalogPath := flag.String("catalog", "configs/catalog.json", "Path to the institution catalog")
	registryPath := flag.String("registry", "configs/task-registry.json", "Path to the task registry")
	verbose := flag.Bool("v", false, "Print per-institution detail")
	flag.Parse()

	failed := false

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		fmt.Printf("FAIL catalog: %v\n", err)
		failed = true
	} else {
		fmt.Printf("OK   catalog: %d institutions\n", cat.Len())
		reportCatalog(cat, *verbose)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("FAIL registry: %v\n", err)
		failed = true
	} else {
		fmt.Printf("OK   registry: %d tasks\n", len(reg.Tasks))
		if err := checkRegistry(reg); err != nil {
			fmt.Printf("FAIL registry: %v\n", err)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

func reportCatalog(cat *catalog.Catalog, verbose bool) {
	medical := cat.Partition(models.ExamNEET)
	engineering := cat.Partition(models.ExamJEE)
	fmt.Printf("     %d engineering, %d medical\n", len(engineering), len(medical))

	withSeats := 0
	for _, inst := range cat.Institutions() {
		published := false
		for _, p := range inst.Programs {
			if p.Seats != nil {
				published = true
			}
		}
		if published {
			withSeats++
		}
		if verbose {
			fmt.Printf("     %-6s %-45s tier=%-8s programs=%d\n", inst.Code, inst.Name, inst.Tier, len(inst.Programs))
		}
	}
	fmt.Printf("     %d institutions publish seat data\n", withSeats)
}

func checkRegistry(reg *registry.TaskRegistry) error {
	seen := map[string]bool{}
	for _, task := range reg.Tasks {
		if task.TaskType == "" {
			return fmt.Errorf("task %q has no taskType", task.ID)
		}
		if seen[task.TaskType] {
			return fmt.Errorf("duplicate taskType %q", task.TaskType)
		}
		seen[task.TaskType] = true

		// A present but malformed schema should fail here, not at job time.
		if len(task.InputSchema) > 0 {
			if err := task.ValidateInput([]byte(`{}`)); err == nil && len(requiredFields(task.InputSchema)) > 0 {
				return fmt.Errorf("task %q: schema accepted an empty object despite required fields", task.TaskType)
			}
		}
	}
	return nil
}

func requiredFields(schema map[string]interface{}) []string {
	raw, ok := schema["required"].([]interface{})
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			fields = append(fields, s)
		}
	}
	sort.Strings(fields)
	return fields
}
