package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/edwinbulter/quote-lambda-tf/internal/config"
	"github.com/edwinbulter/quote-lambda-tf/internal/dynamo"
	"github.com/edwinbulter/quote-lambda-tf/internal/naming"
)

var flagTablesEnvironment string

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Show the table set and any leftover restore tables",
	Long: `Show the concrete table names for an environment, their live status
and approximate item counts, and any -restore- tables left behind by
earlier runs.

Leftover restore tables cost storage and are swept automatically at the
start of the next restore run, but this command makes them visible
without starting one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTables(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)

	tablesCmd.Flags().StringVar(&flagTablesEnvironment, "environment", "", "Target environment (dev, prod)")
	tablesCmd.MarkFlagRequired("environment")
}

func runTables(ctx context.Context) error {
	cfg.Environment = flagTablesEnvironment
	tableSet, err := cfg.TableSet()
	if err != nil {
		return err
	}

	client, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Environment: %s   Region: %s\n\n", cfg.Environment, cfg.Region)
	fmt.Printf("%-12s %-40s %-10s %s\n", "ROLE", "TABLE", "STATUS", "ITEMS")
	for _, role := range config.Roles() {
		name := tableSet[role]
		out, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(name),
		})
		if err != nil {
			if dynamo.IsNotFound(err) {
				fmt.Printf("%-12s %-40s %-10s %s\n", role, name, "MISSING", "-")
				continue
			}
			return fmt.Errorf("failed to describe table %s: %w", name, err)
		}
		fmt.Printf("%-12s %-40s %-10s %s\n", role, name,
			string(out.Table.TableStatus),
			humanize.Comma(aws.ToInt64(out.Table.ItemCount)),
		)
	}

	leftovers, err := restoreTableLeftovers(ctx, client, tableSet)
	if err != nil {
		return err
	}
	if len(leftovers) > 0 {
		fmt.Printf("\nLeftover restore tables:\n")
		for _, name := range leftovers {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

// restoreTableLeftovers lists tables named like a restore table of one of the
// tables in the set.
func restoreTableLeftovers(ctx context.Context, client dynamo.API, tableSet map[string]string) ([]string, error) {
	var leftovers []string
	var start *string
	for {
		out, err := client.ListTables(ctx, &dynamodb.ListTablesInput{
			ExclusiveStartTableName: start,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		for _, name := range out.TableNames {
			for _, original := range tableSet {
				if naming.IsRestoreTableOf(name, original) {
					leftovers = append(leftovers, name)
					break
				}
			}
		}
		if out.LastEvaluatedTableName == nil {
			return leftovers, nil
		}
		start = out.LastEvaluatedTableName
	}
}
