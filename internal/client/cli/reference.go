package cli

import (
	"context"
	"strconv"
)

// Projects lists the projects available to the user, live when possible and
// from the cache otherwise.
func (a *App) Projects(ctx context.Context) error {
	projects, err := a.reports.Projects(ctx)
	if err != nil {
		printlnFn("Could not load projects:", err)
		return err
	}

	for i, p := range projects {
		marker := " "
		if p.ID == a.projectID {
			marker = "*"
		}
		printlnFn(marker, i+1, p.Name)
	}
	return nil
}

// Use selects the active project by its number in the last "projects"
// listing. Subsequent new/draft commands compose against it.
func (a *App) Use(ctx context.Context, arg string) error {
	projects, err := a.reports.Projects(ctx)
	if err != nil {
		printlnFn("Could not load projects:", err)
		return err
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(projects) {
		printlnFn("Usage: use <project number>")
		return nil
	}

	a.projectID = projects[n-1].ID
	printlnFn("Active project:", projects[n-1].Name)

	// Warm the element cache for the selected project so composing works
	// offline later. A failure here is not fatal.
	if _, err := a.reports.Elements(ctx, a.projectID); err != nil {
		a.log.Warn(ctx, "failed to prefetch elements", "projectId", a.projectID, "error", err)
	}
	return nil
}

// Elements prints the classification hierarchy of the active project,
// level by level.
func (a *App) Elements(ctx context.Context) error {
	if a.projectID == "" {
		printlnFn("Select a project first: projects, then use <n>")
		return nil
	}

	elements, err := a.reports.Elements(ctx, a.projectID)
	if err != nil {
		printlnFn("Could not load elements:", err)
		return err
	}

	for _, t := range reportTypes {
		list := elements.ListFor(t)
		if len(list) == 0 {
			continue
		}
		printlnFn(string(t) + ":")
		for _, el := range list {
			printlnFn("  -", el.Name)
		}
	}
	return nil
}

// Units lists the available unit types. This never fails: the service falls
// back to a built-in set when neither the server nor the cache has data.
func (a *App) Units(ctx context.Context) error {
	units, err := a.reports.UnitTypes(ctx)
	if err != nil {
		printlnFn("Could not load unit types:", err)
		return err
	}
	for _, u := range units {
		printlnFn(" ", u.Name, "("+u.Symbol+")")
	}
	return nil
}
