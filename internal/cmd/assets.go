package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/vulnark/internal/api"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/router"
	"github.com/felixgeelhaar/vulnark/internal/tui"
)

func newAssetsCommand() *cobra.Command {
	var (
		filter api.AssetFilter
		size   int
	)
	c := &cobra.Command{
		Use:     "assets",
		Short:   "Asset inventory",
		GroupID: groupPages,
		Long: `List and manage the asset inventory.

Without a subcommand the inventory is listed; the filter flags narrow it.

Examples:
  vulnark assets --type SERVER --status ACTIVE
  vulnark assets get 42
  vulnark assets import hosts.yaml
  vulnark assets export -o json --file assets.json`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.page(cmd, router.PathAssets); err != nil {
				return err
			}
			if size <= 0 {
				size = a.cfg.UI.PageSize
			}
			filter.Size = size
			filter.Type = strings.ToUpper(filter.Type)
			filter.Status = strings.ToUpper(filter.Status)
			filter.Importance = strings.ToUpper(filter.Importance)

			page, err := a.client.Assets().List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			p := tui.AssetPage(page.Content)
			p.Total = page.TotalElements
			p.Message = "No assets match."
			return a.renderPage(cmd, p)
		}),
	}
	f := c.Flags()
	f.StringVar(&filter.Keyword, "keyword", "", "match name, address or domain")
	f.StringVar(&filter.Type, "type", "", "asset type ("+strings.Join(api.AssetTypes, ", ")+")")
	f.StringVar(&filter.Status, "status", "", "asset status ("+strings.Join(api.AssetStatuses, ", ")+")")
	f.StringVar(&filter.Importance, "importance", "", "importance ("+strings.Join(api.AssetImportances, ", ")+")")
	f.Int64Var(&filter.OwnerID, "owner", 0, "owner user ID")
	f.IntVar(&filter.Page, "page", 0, "page number, starting at 0")
	f.IntVar(&size, "size", 0, "rows per page (default ui.page_size)")

	c.AddCommand(
		newAssetGetCommand(),
		newAssetCreateCommand(),
		newAssetDeleteCommand(),
		newAssetStatsCommand(),
		newAssetSearchCommand(),
		newAssetExportCommand(),
		newAssetImportCommand(),
	)
	return c
}

func newAssetGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.page(cmd, router.PathAssets); err != nil {
				return err
			}
			asset, err := a.client.Assets().Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			view, err := fields(asset)
			if err != nil {
				return err
			}
			return a.render(cmd, asset, view)
		}),
	}
}

func newAssetCreateCommand() *cobra.Command {
	var asset api.Asset
	c := &cobra.Command{
		Use:   "create",
		Short: "Add an asset",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := checkAsset(&asset); err != nil {
				return err
			}
			if err := a.page(cmd, router.PathAssets); err != nil {
				return err
			}
			created, err := a.client.Assets().Create(cmd.Context(), asset)
			if err != nil {
				return err
			}
			if a.cmdCtx.Structured() {
				return a.render(cmd, created, nil)
			}
			a.say(cmd, "%s Asset %s created (ID %d)", successMark, created.Name, created.ID)
			return nil
		}),
	}
	f := c.Flags()
	f.StringVar(&asset.Name, "name", "", "asset name (required)")
	f.StringVar(&asset.Type, "type", "SERVER", "asset type")
	f.StringVar(&asset.Status, "status", "ACTIVE", "asset status")
	f.StringVar(&asset.Importance, "importance", "MEDIUM", "importance")
	f.StringVar(&asset.IPAddress, "ip", "", "IP address")
	f.StringVar(&asset.Domain, "domain", "", "domain name")
	f.IntVar(&asset.Port, "port", 0, "service port")
	f.StringVar(&asset.Description, "description", "", "description")
	f.StringVar(&asset.Tags, "tags", "", "comma separated tags")
	_ = c.MarkFlagRequired("name")
	return c
}

// checkAsset normalises the enumerated fields and rejects unknown values
// before the server sees them. Status and importance default to ACTIVE and
// MEDIUM.
func checkAsset(asset *api.Asset) error {
	if strings.TrimSpace(asset.Name) == "" {
		return cerrors.New(cerrors.ErrCodeInputRequired, "asset name is required")
	}
	if asset.Status == "" {
		asset.Status = "ACTIVE"
	}
	if asset.Importance == "" {
		asset.Importance = "MEDIUM"
	}
	for _, e := range []struct {
		field   string
		value   *string
		allowed []string
	}{
		{"type", &asset.Type, api.AssetTypes},
		{"status", &asset.Status, api.AssetStatuses},
		{"importance", &asset.Importance, api.AssetImportances},
	} {
		*e.value = strings.ToUpper(*e.value)
		if !slices.Contains(e.allowed, *e.value) {
			return cerrors.Newf(cerrors.ErrCodeInputInvalid, "invalid %s %q for asset %q", e.field, *e.value, asset.Name).
				WithSuggestion("Use one of: " + strings.Join(e.allowed, ", "))
		}
	}
	return nil
}

func newAssetDeleteCommand() *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete assets",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if err := a.page(cmd, router.PathAssets); err != nil {
				return err
			}

			if !yes {
				if !tui.ShouldPrompt(cmd.OutOrStdout()) {
					return cerrors.New(cerrors.ErrCodeInputRequired, "deleting assets needs confirmation").
						WithSuggestion("Pass --yes to delete without asking")
				}
				ok, err := tui.PromptForConfirmation(fmt.Sprintf("Delete %d asset(s)?", len(ids)), false)
				if err != nil {
					return err
				}
				if !ok {
					a.say(cmd, "Nothing deleted.")
					return nil
				}
			}

			svc := a.client.Assets()
			var err error
			if len(ids) == 1 {
				err = svc.Delete(cmd.Context(), ids[0])
			} else {
				err = svc.BatchDelete(cmd.Context(), ids)
			}
			if err != nil {
				return err
			}
			a.say(cmd, "%s Deleted %d asset(s)", successMark, len(ids))
			return nil
		}),
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return c
}

func newAssetStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Inventory totals by type, status and importance",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.page(cmd, router.PathAssets); err != nil {
				return err
			}
			st, err := a.client.Assets().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if a.cmdCtx.Structured() {
				return a.render(cmd, st, nil)
			}

			f, err := a.cmdCtx.Formatter(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := f.Format(detail{{"Total assets", strconv.FormatInt(st.TotalAssets, 10)}}); err != nil {
				return err
			}
			for _, s := range []struct {
				title string
				m     map[string]int64
			}{
				{"By type", st.AssetsByType},
				{"By status", st.AssetsByStatus},
				{"By importance", st.AssetsByImportance},
			} {
				if err := section(w, f, s.title, countPage(s.m)); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

// countPage lists a count map, largest first.
func countPage(m map[string]int64) tui.Page {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if m[a] != m[b] {
			if m[a] > m[b] {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	p := tui.Page{Columns: []string{"Value", "Count"}}
	for _, k := range keys {
		p.Data = append(p.Data, []string{k, strconv.FormatInt(m[k], 10)})
	}
	return p
}

func newAssetSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search KEYWORD",
		Short: "Search assets by name, address or domain",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.page(cmd, router.PathAssets); err != nil {
				return err
			}
			found, err := a.client.Assets().Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := tui.AssetPage(found)
			p.Message = fmt.Sprintf("No assets match %q.", args[0])
			return a.renderPage(cmd, p)
		}),
	}
}

func newAssetExportCommand() *cobra.Command {
	var file string
	c := &cobra.Command{
		Use:   "export [ID...]",
		Short: "Export assets (all of them without IDs)",
		Long: `Export assets as JSON or YAML. The format follows --format, or the file
extension when --file ends in .yaml or .yml. Needs the reports feature.`,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireFeature("reports"); err != nil {
				return err
			}
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if err := a.page(cmd, router.PathAssets); err != nil {
				return err
			}
			assets, err := a.client.Assets().Export(cmd.Context(), ids)
			if err != nil {
				return err
			}

			if file == "" {
				if !a.cmdCtx.Structured() {
					return a.renderPage(cmd, tui.AssetPage(assets))
				}
				return a.render(cmd, assets, nil)
			}
			data, err := encodeAssets(assets, file, a.cmdCtx.Format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, data, 0o600); err != nil {
				return cerrors.Wrap(cerrors.ErrCodeFileWriteFailed, "cannot write "+file, err)
			}
			a.say(cmd, "%s Exported %d asset(s) to %s", successMark, len(assets), file)
			return nil
		}),
	}
	c.Flags().StringVar(&file, "file", "", "write to this file instead of stdout")
	return c
}

func isYAMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func encodeAssets(assets []api.Asset, path, format string) ([]byte, error) {
	data, err := json.MarshalIndent(assets, "", "  ")
	if err != nil || !(isYAMLFile(path) || format == "yaml") {
		return data, err
	}
	// Keep the JSON field names so the file imports again.
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return yaml.Marshal(raw)
}

func newAssetImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import assets from a JSON or YAML file",
		Long: `Upload a list of assets. Files ending in .yaml or .yml are read as YAML,
anything else as JSON. Every asset is checked before anything is sent. Needs
the file_upload feature; the file may not exceed ui.max_upload_size.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireFeature("file_upload"); err != nil {
				return err
			}
			assets, err := readAssets(args[0], a.cfg.UI.MaxUploadSize)
			if err != nil {
				return err
			}
			if err := a.page(cmd, router.PathAssets); err != nil {
				return err
			}
			created, err := a.client.Assets().Import(cmd.Context(), assets)
			if err != nil {
				return err
			}
			if a.cmdCtx.Structured() {
				return a.render(cmd, created, nil)
			}
			a.say(cmd, "%s Imported %d of %d asset(s)", successMark, len(created), len(assets))
			return nil
		}),
	}
}

func readAssets(path string, limit int64) ([]api.Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, "cannot open "+path, err)
	}
	if limit > 0 && info.Size() > limit {
		return nil, cerrors.Newf(cerrors.ErrCodeInputInvalid, "%s is %d bytes, the upload limit is %d", path, info.Size(), limit).
			WithSuggestion("Split the file or raise ui.max_upload_size")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeFileReadFailed, "cannot read "+path, err)
	}

	var assets []api.Asset
	if isYAMLFile(path) {
		// yaml.v3 does not know the json tags; go through a generic value.
		var raw any
		if err = yaml.Unmarshal(data, &raw); err == nil {
			var js []byte
			if js, err = json.Marshal(raw); err == nil {
				err = json.Unmarshal(js, &assets)
			}
		}
	} else {
		err = json.Unmarshal(data, &assets)
	}
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInputInvalid, path+" is not a list of assets", err)
	}
	if len(assets) == 0 {
		return nil, cerrors.New(cerrors.ErrCodeInputInvalid, path+" contains no assets")
	}
	for i := range assets {
		if err := checkAsset(&assets[i]); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

// requireFeature fails when the named feature is switched off.
func (a *app) requireFeature(name string) error {
	if a.cfg.Features.Enabled(name) {
		return nil
	}
	return cerrors.Newf(cerrors.ErrCodeInputInvalid, "the %s feature is disabled", name).
		WithSuggestion(fmt.Sprintf("Run 'vulnark config set features.%s true'", name))
}
