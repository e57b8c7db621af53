package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ogulcanaydogan/binwatch/pkg/catalog"
	"github.com/ogulcanaydogan/binwatch/pkg/model"
	"github.com/ogulcanaydogan/binwatch/pkg/storage"
)

var binsCmd = &cobra.Command{
	Use:   "bins",
	Short: "Manage registered bins",
}

var binsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered bins",
	RunE:  runBinsList,
}

var binsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a bin",
	RunE:  runBinsAdd,
}

var binsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a registered bin",
	Args:  cobra.ExactArgs(1),
	RunE:  runBinsRemove,
}

var binsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Register bins from a YAML catalog",
	RunE:  runBinsImport,
}

func init() {
	rootCmd.AddCommand(binsCmd)
	binsCmd.AddCommand(binsListCmd)
	binsCmd.AddCommand(binsAddCmd)
	binsCmd.AddCommand(binsRemoveCmd)
	binsCmd.AddCommand(binsImportCmd)

	binsAddCmd.Flags().StringP("name", "n", "", "Bin name")
	binsAddCmd.Flags().StringP("type", "t", "", "Bin type (e.g., plastic, paper, glass)")
	binsAddCmd.Flags().String("location", "", "Where the bin is installed")
	_ = binsAddCmd.MarkFlagRequired("name")
	_ = binsAddCmd.MarkFlagRequired("type")

	binsImportCmd.Flags().StringP("file", "f", "", "Catalog YAML file")
	_ = binsImportCmd.MarkFlagRequired("file")
}

func runBinsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	bins, err := store.ListBins(cmd.Context())
	if err != nil {
		return fmt.Errorf("list bins: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(bins) == 0 {
		fmt.Fprintln(out, "No bins registered. Use 'binwatch bins add' to register one.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\tTYPE\tLOCATION\tREGISTERED\n")
	for _, b := range bins {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Name, b.Type, b.Location, b.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()

	return nil
}

func runBinsAdd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	binType, _ := cmd.Flags().GetString("type")
	location, _ := cmd.Flags().GetString("location")

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	bin := &model.Bin{Name: name, Type: binType, Location: location}
	if err := store.CreateBin(cmd.Context(), bin); err != nil {
		return fmt.Errorf("register bin: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Bin registered:\n")
	fmt.Fprintf(out, "  ID:        %s\n", bin.ID)
	fmt.Fprintf(out, "  Name:      %s\n", bin.Name)
	fmt.Fprintf(out, "  Type:      %s\n", bin.Type)
	if bin.Location != "" {
		fmt.Fprintf(out, "  Location:  %s\n", bin.Location)
	}

	return nil
}

func runBinsRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteBin(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no bin with id %s", args[0])
		}
		return fmt.Errorf("remove bin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Bin %s removed.\n", args[0])
	return nil
}

func runBinsImport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("file")
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	imported := 0
	for _, b := range c.ToBins() {
		if err := store.CreateBin(cmd.Context(), &b); err != nil {
			fmt.Fprintf(out, "  skipped %s: %v\n", b.Name, err)
			continue
		}
		imported++
	}

	fmt.Fprintf(out, "Imported %d of %d bins from %s\n", imported, len(c.Bins), path)
	return nil
}
