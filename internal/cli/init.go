package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftdb/weft/internal/paths"
	"github.com/weftdb/weft/pkg/sqlstore"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize weft storage",
		Long:  "Create the configuration and data directories, write a default\nweft.yaml, and apply the catalog schema to the store.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve config dir: %s", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("load config: %s", err))
	}

	// A fresh weft.yaml has no resources yet; leave the store untouched
	// until the catalog is declared.
	if len(cfg.Resources) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s; declare resources in %s and run init again to apply the schema\n", configDir, configFileExt)
		return nil
	}

	catalog, err := buildCatalog(cfg.Resources)
	if err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("build catalog: %s", err))
	}
	storeCfg, err := cfg.storeConfig()
	if err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("store config: %s", err))
	}

	st, err := sqlstore.Open(storeCfg, catalog)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize storage: %s", err))
	}
	defer st.Close()

	if err := st.EnsureSchema(cmd.Context()); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("apply schema: %s", err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Weft initialized successfully")
	return nil
}
