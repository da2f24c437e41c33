package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellodesk/internal/auth/refresh"
	"github.com/dropDatabas3/hellodesk/internal/config"
	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
	"github.com/dropDatabas3/hellodesk/internal/jwt"
	"github.com/dropDatabas3/hellodesk/internal/security/password"
	"github.com/dropDatabas3/hellodesk/internal/store"
	"github.com/dropDatabas3/hellodesk/internal/util/atomicwrite"

	_ "github.com/dropDatabas3/hellodesk/internal/store/memory"
	_ "github.com/dropDatabas3/hellodesk/internal/store/pg"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "hellodesk",
		Short:         "CLI operativo de hellodesk (migraciones, claves, tokens)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("CONFIG_PATH", "configs/config.yaml"), "ruta a config.yaml (env CONFIG_PATH)")

	loadCfg := func() (*config.Config, error) { return config.Load(cfgPath) }

	root.AddCommand(
		newMigrateCmd(loadCfg),
		newHashPasswordCmd(loadCfg),
		newGenSigningKeyCmd(),
		newRevokeTokensCmd(loadCfg),
		newSetActiveCmd(loadCfg),
	)
	return root
}

type cfgLoader func() (*config.Config, error)

func openStore(ctx context.Context, cfg *config.Config) (store.Connection, error) {
	return store.Open(ctx, store.AdapterConfig{
		Name:     cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		MaxConns: 2,
	})
}

func newMigrateCmd(load cfgLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el schema (idempotente)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			conn, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			m, ok := conn.(store.Migrator)
			if !ok {
				return fmt.Errorf("driver %s no soporta migraciones", conn.Name())
			}
			if err := m.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newHashPasswordCmd(load cfgLoader) *cobra.Command {
	var (
		policy     password.Policy
		memKiB     uint32
		iterations uint32
		skipPolicy bool
	)
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Lee un password de stdin e imprime su hash argon2id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("leyendo stdin: %w", err)
			}
			plain := strings.TrimRight(line, "\r\n")
			if !skipPolicy {
				if err := policy.Check(plain); err != nil {
					return err
				}
			}
			// parámetros del config si hay uno; los flags explícitos ganan
			p := password.Default
			if cfg, err := load(); err == nil {
				a := cfg.Security.Argon2
				p = password.Params{Memory: a.MemoryKiB, Time: a.Time, Parallelism: a.Parallelism}.WithDefaults()
			}
			if cmd.Flags().Changed("memory-kib") {
				p.Memory = memKiB
			}
			if cmd.Flags().Changed("time") {
				p.Time = iterations
			}
			h, err := password.Hash(p, plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&policy.MinLength, "min-length", 10, "largo mínimo")
	f.BoolVar(&policy.RequireUpper, "require-upper", true, "exigir mayúscula")
	f.BoolVar(&policy.RequireLower, "require-lower", true, "exigir minúscula")
	f.BoolVar(&policy.RequireDigit, "require-digit", true, "exigir dígito")
	f.BoolVar(&policy.RequireSymbol, "require-symbol", false, "exigir símbolo")
	f.BoolVar(&skipPolicy, "skip-policy", false, "no validar política (secrets de clientes)")
	f.Uint32Var(&memKiB, "memory-kib", password.Default.Memory, "argon2 memory (KiB)")
	f.Uint32Var(&iterations, "time", password.Default.Time, "argon2 iterations")
	return cmd
}

func newGenSigningKeyCmd() *cobra.Command {
	var kid, outPath string
	cmd := &cobra.Command{
		Use:   "gen-signing-key",
		Short: "Genera un seed Ed25519 (base64) para jwt.signing_key_seed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := jwt.GenerateSeed()
			if err != nil {
				return err
			}
			b64 := base64.StdEncoding.EncodeToString(seed)
			// sanity: el seed tiene que cargar
			if _, err := jwt.NewEd25519FromBase64Seed(kid, b64); err != nil {
				return err
			}
			env := fmt.Sprintf("SIGNING_KEY_KID=%s\nSIGNING_KEY_SEED=%s\n", kid, b64)
			if outPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), env)
				return nil
			}
			if err := atomicwrite.WriteFile(outPath, []byte(env), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "written %s (kid=%s)\n", outPath, kid)
			return nil
		},
	}
	cmd.Flags().StringVar(&kid, "kid", time.Now().UTC().Format("20060102"), "key id")
	cmd.Flags().StringVar(&outPath, "out", "", "escribir a un archivo .env (0600) en vez de stdout")
	return cmd
}

func newRevokeTokensCmd(load cfgLoader) *cobra.Command {
	var principalID string
	cmd := &cobra.Command{
		Use:   "revoke-tokens",
		Short: "Revoca todos los refresh tokens vigentes de un principal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if principalID == "" {
				return errors.New("--principal es requerido")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			conn, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := refresh.NewRotator(conn.Tokens(), cfg.RefreshTTL()).Revoke(cmd.Context(), principalID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked=%d\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&principalID, "principal", "", "principal id")
	return cmd
}

func newSetActiveCmd(load cfgLoader) *cobra.Command {
	var tenantID, principalID string
	var active bool
	cmd := &cobra.Command{
		Use:   "set-active",
		Short: "Activa o desactiva un principal (desactivar revoca sus refresh tokens)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tenantID == "" || principalID == "" {
				return errors.New("--tenant y --principal son requeridos")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			conn, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			flag := repository.Inactive
			if active {
				flag = repository.Active
			}
			if err := conn.Principals().SetActive(ctx, tenantID, principalID, flag); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("principal %s/%s no existe", tenantID, principalID)
				}
				return err
			}
			out := fmt.Sprintf("principal=%s active=%s", principalID, flag)
			if !active {
				n, err := refresh.NewRotator(conn.Tokens(), cfg.RefreshTTL()).Revoke(ctx, principalID)
				if err != nil {
					return err
				}
				out += fmt.Sprintf(" revoked=%d", n)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&principalID, "principal", "", "principal id")
	cmd.Flags().BoolVar(&active, "active", false, "true para activar")
	return cmd
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
