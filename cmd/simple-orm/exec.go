package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SiddhanthNB/simple-orm/query/executor"
	"github.com/SiddhanthNB/simple-orm/runtime/client"
)

var execTimeout time.Duration

var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "Execute a raw SQL statement",
	Long: `Execute a raw SQL statement against the configured database.

The connection is configured through DATABASE_PROVIDER and DATABASE_URL,
read from the environment, a .env file, or a .simple-orm.yaml config file.
Statements are sent through the engine's parameter-safe execution path.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openClient()
		if err != nil {
			return err
		}
		defer c.Disconnect()

		ctx, cancel := context.WithTimeout(cmd.Context(), execTimeout)
		defer cancel()

		if err := c.Connect(ctx); err != nil {
			return fmt.Errorf("connecting: %w", err)
		}

		exec, err := executor.New(c.DB(), c.Dialect())
		if err != nil {
			return err
		}

		sqlText := strings.Join(args, " ")
		rows, err := exec.QueryRaw(ctx, sqlText)
		if err != nil {
			return err
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			record, err := rows.Record()
			if err != nil {
				return err
			}
			fmt.Println(formatRecord(record))
			count++
		}
		if err := rows.Err(); err != nil {
			return err
		}
		color.Green("%d row(s)", count)
		return nil
	},
}

// openClient builds a client from config-file values when present, falling
// back to the environment.
func openClient() (*client.Client, error) {
	viper.SetConfigName(".simple-orm")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("SIMPLE_ORM")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	provider := viper.GetString("provider")
	dsn := viper.GetString("url")
	if provider != "" && dsn != "" {
		return client.New(provider, dsn)
	}
	return client.FromEnv()
}

func formatRecord(record map[string]interface{}) string {
	parts := make([]string, 0, len(record))
	for col, v := range record {
		parts = append(parts, fmt.Sprintf("%s=%v", col, v))
	}
	return strings.Join(parts, "\t")
}

func init() {
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 30*time.Second, "statement timeout")
	rootCmd.AddCommand(execCmd)
}
