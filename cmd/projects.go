package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

// ProjectsCmd returns the projects command.
func ProjectsCmd() *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List the projects the configuration resolves to",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Project path glob patterns to include (can be specified multiple times)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Project path glob patterns to exclude (can be specified multiple times)",
			},
		},
		Action: projectsAction,
	}
}

func projectsAction(c *cli.Context) error {
	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPath\tURL")
	for _, project := range ctx.Projects {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", project.ID, project.PathWithNamespace, project.WebURL)
	}
	tw.Flush()
	fmt.Printf("\n%d projects\n", len(ctx.Projects))
	return nil
}
