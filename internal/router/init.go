package router

import (
	"github.com/oksasatya/usuarios-storage-api/internal/application"
	"github.com/oksasatya/usuarios-storage-api/internal/container"
	repousuario "github.com/oksasatya/usuarios-storage-api/internal/domain/repository"
	esinfra "github.com/oksasatya/usuarios-storage-api/internal/infrastructure/elasticsearch"
	meminfra "github.com/oksasatya/usuarios-storage-api/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/usuarios-storage-api/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/usuarios-storage-api/internal/interface/http"
	"github.com/oksasatya/usuarios-storage-api/internal/router/modules"
)

type UsuarioModuleDeps struct {
	Repo    repousuario.UsuarioRepository
	Service *application.Service
	Handler *handlers.UsuarioHandler
}

// buildRepo picks the record store; nil means every data route answers 503
func buildRepo() repousuario.UsuarioRepository {
	if container.GetConfig().DBBackend == "memory" {
		return meminfra.NewUsuarioRepository()
	}
	if pool := container.GetPGPool(); pool != nil {
		return pginfra.NewUsuarioRepository(pool)
	}
	return nil
}

func buildUsuarioDeps() UsuarioModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	repo := buildRepo()

	var index application.UsuarioIndexer
	if es := container.GetES(); es != nil {
		index = esinfra.NewUsuarioIndex(es, cfg.ESUsuariosIndex)
	}
	var events application.EventPublisher
	if pub := container.GetRabbitPub(); pub != nil {
		events = pub
	}

	service := application.NewService(repo, container.GetBlobStore(), logger, index, events)
	return UsuarioModuleDeps{
		Repo:    repo,
		Service: service,
		Handler: handlers.NewUsuarioHandler(service, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	deps := buildUsuarioDeps()

	r.Add(modules.NewUsuarioModule(deps.Handler))
	r.AddRoot(modules.NewSystemModule(handlers.NewSystemHandler(deps.Service, cfg.AppName)))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
