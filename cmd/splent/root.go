package main

import (
	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/logging"
	"github.com/diverso-lab/splent-cli/internal/output"
)

const (
	groupFeature = "feature"
	groupProduct = "product"
	groupEnv     = "env"
	groupDevQA   = "devqa"
	groupUtil    = "util"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "splent",
		Short: "Compose SPL products from feature repositories",
		Long: `splent manages a workspace of products and the feature repositories they
are assembled from.

Features are cloned into <workspace>/.splent_cache and symlinked into the
active product (SPLENT_APP). Products are started, stopped and deployed
through docker compose.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				return output.NewUserError("no command specified. Run 'splent --help' for usage")
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		logging.ConfigureRuntime()
		verbose, _ := cmd.Flags().GetBool("verbose")
		logging.SetVerbose(verbose)
		return nil
	}

	flags := cmd.PersistentFlags()
	flags.String("workspace", "", "Workspace root (overrides WORKING_DIR)")
	flags.String("app", "", "Active product (overrides SPLENT_APP)")
	flags.Bool("json", false, "Output in JSON format where supported")
	flags.BoolP("verbose", "V", false, "Enable debug logging")
	flags.String("color", "auto", "Color output: auto, always, never")

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: groupFeature, Title: "Feature Commands:"})
	cmd.AddGroup(&cobra.Group{ID: groupProduct, Title: "Product Commands:"})
	cmd.AddGroup(&cobra.Group{ID: groupEnv, Title: "Environment Commands:"})
	cmd.AddGroup(&cobra.Group{ID: groupDevQA, Title: "Dev & QA Commands:"})
	cmd.AddGroup(&cobra.Group{ID: groupUtil, Title: "Utility Commands:"})
}

// addCommands registers every subcommand under its group.
func addCommands(cmd *cobra.Command) {
	addGroupedCommand(cmd, newFeatureCloneCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureAttachCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureAddCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureRemoveCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureDetachCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureCreateCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureDeleteCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureDiscardCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureEditCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureEnvCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureForkCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureReleaseCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureRenameCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureListCmd(), groupFeature)
	addGroupedCommand(cmd, newFeatureMigrateCmd(), groupFeature)

	addGroupedCommand(cmd, newProductUpCmd(), groupProduct)
	addGroupedCommand(cmd, newProductDownCmd(), groupProduct)
	addGroupedCommand(cmd, newProductBuildCmd(), groupProduct)
	addGroupedCommand(cmd, newProductDeployCmd(), groupProduct)
	addGroupedCommand(cmd, newProductEnvCmd(), groupProduct)
	addGroupedCommand(cmd, newProductSelectCmd("product:select"), groupProduct)
	addGroupedCommand(cmd, newSelectCmd(), groupProduct)
	addGroupedCommand(cmd, newProductSyncCmd(), groupProduct)
	addGroupedCommand(cmd, newProductPortCmd(), groupProduct)
	addGroupedCommand(cmd, newProductRunCmd(), groupProduct)
	addGroupedCommand(cmd, newProductCloneFeaturesCmd(), groupProduct)

	addGroupedCommand(cmd, newEnvSetCmd(), groupEnv)
	addGroupedCommand(cmd, newEnvShowCmd(), groupEnv)

	addGroupedCommand(cmd, newWebpackCmd(), groupDevQA)
	addGroupedCommand(cmd, newLinterCmd(), groupDevQA)
	addGroupedCommand(cmd, newPytestCmd(), groupDevQA)

	addGroupedCommand(cmd, newDoctorCmd(), groupUtil)
	addGroupedCommand(cmd, newVersionCmd(), groupUtil)
	addGroupedCommand(cmd, newClearFeaturesCmd(), groupUtil)
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
