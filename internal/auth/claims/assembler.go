package claims

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

const defaultFetchConcurrency = 4

// Assembler lee roles y permisos del storage y delega en Build.
type Assembler struct {
	RBAC repository.RBACRepository
	// Concurrency limita los fetch de permisos en paralelo. <=0 usa 4.
	Concurrency int
}

func NewAssembler(rbac repository.RBACRepository) *Assembler {
	return &Assembler{RBAC: rbac, Concurrency: defaultFetchConcurrency}
}

// Assemble arma el claim set con el estado actual del storage.
// Un rol que ya no existe se saltea; cualquier otro error aborta.
func (a *Assembler) Assemble(ctx context.Context, p *repository.Principal) (Set, error) {
	log := logger.Scoped(ctx, "service", "claims", "assemble").With(
		logger.TenantID(p.TenantID), logger.PrincipalID(p.ID))

	roles, err := a.RBAC.PrincipalRoles(ctx, p.TenantID, p.ID)
	if err != nil {
		return Set{}, fmt.Errorf("principal roles: %w", err)
	}

	idx, skipped, err := a.snapshot(ctx, p.TenantID, roles)
	if err != nil {
		return Set{}, err
	}
	if skipped > 0 {
		log.Debug("dangling roles skipped", logger.Count(skipped))
	}

	return Build(*p, roles, idx), nil
}

// snapshot trae los permisos de cada rol (distinto) en paralelo.
func (a *Assembler) snapshot(ctx context.Context, tenantID string, roles []string) (PermissionIndex, int, error) {
	var (
		mu  sync.Mutex
		idx = make(PermissionIndex, len(roles))
	)

	limit := a.Concurrency
	if limit <= 0 {
		limit = defaultFetchConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	seen := map[string]bool{}
	for _, r := range roles {
		role := strings.TrimSpace(r)
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true

		g.Go(func() error {
			perms, err := a.RBAC.RolePermissions(gctx, tenantID, role)
			if repository.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("role %q permissions: %w", role, err)
			}
			mu.Lock()
			idx[role] = perms
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return idx, len(seen) - len(idx), nil
}
