package cli

import (
	"strconv"
	"strings"

	"catalog-editor/internal/lookup"
	"catalog-editor/internal/model"
	"catalog-editor/internal/opqueue"

	"github.com/spf13/cobra"
)

// labelList renders one row per label in table output.
type labelList []model.Label

func (l labelList) Header() []string {
	return []string{"IDETIQUETA", "ETIQUETA", "COLECCION", "SECCION", "SECUENCIA", "SOCIEDAD", "CEDI", "VALORES"}
}

func (l labelList) Rows() [][]string {
	out := make([][]string, 0, len(l))
	for _, lb := range l {
		out = append(out, []string{
			lb.LabelID, lb.Name, lb.Collection, lb.Section, strconv.Itoa(lb.Sequence),
			lb.SocietyID, lb.CediID, strconv.Itoa(len(lb.Values)),
		})
	}
	return out
}

// labelDetail renders a label's values in table output. JSON output is the label itself.
type labelDetail struct {
	model.Label
	catalog []model.Label
}

func (d labelDetail) Header() []string {
	return []string{"IDVALOR", "VALOR", "ALIAS", "SECUENCIA", "PADRE", "SOCIEDAD", "CEDI"}
}

func (d labelDetail) Rows() [][]string {
	societies := lookup.SocietyOptions(d.catalog)
	out := make([][]string, 0, len(d.Values))
	for _, v := range d.Values {
		out = append(out, []string{
			v.ValueID, v.Value, v.Alias, strconv.Itoa(v.Sequence),
			lookup.ParentValueName(d.catalog, v.ParentValueID),
			lookup.DisplayName(societies, v.SocietyID),
			lookup.DisplayName(lookup.CediOptions(d.catalog, v.SocietyID), v.CediID),
		})
	}
	return out
}

func newLabelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Read the catalog from the backend",
	}
	cmd.AddCommand(newLabelsListCmd(app))
	cmd.AddCommand(newLabelsShowCmd(app))
	return cmd
}

func newLabelsListCmd(app *App) *cobra.Command {
	var search string
	var fuzzy bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List labels (optionally filtered)",
		Example: strings.TrimSpace(`
  catalog labels list --search azul
  catalog labels list --search clr --fuzzy --format table
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := loadCatalog(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if fuzzy {
				labels = lookup.FuzzyFilter(labels, search)
			} else {
				labels = lookup.Filter(labels, search)
			}
			if labels == nil {
				labels = []model.Label{}
			}
			return writeOut(cmd, app, map[string]any{"data": labelList(labels)})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive text filter over labels and their values")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Rank labels by fuzzy match instead of substring filtering")
	return cmd
}

func newLabelsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <label-id>",
		Short: "Show one label with its values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := loadCatalog(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			for _, l := range labels {
				if l.LabelID == id {
					return writeOut(cmd, app, map[string]any{"data": labelDetail{Label: l, catalog: labels}})
				}
			}
			return writeErr(cmd, errNotFound("label", id))
		},
	}
}

// loadCatalog fetches the catalog. Unlike the TUI, a failed fetch is an error here.
func loadCatalog(cmd *cobra.Command, app *App) ([]model.Label, error) {
	log, done, err := app.logger(cmd)
	if err != nil {
		return nil, err
	}
	defer done()
	svc, err := app.service(opqueue.New(), log)
	if err != nil {
		return nil, err
	}
	return svc.Load(cmd.Context())
}
