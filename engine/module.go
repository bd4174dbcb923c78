package engine

import (
	"log/slog"
	"time"

	httpadapter "crossvote/engine/adapters/http"
	"crossvote/engine/adapters/memory"
	"crossvote/engine/application/commands"
	"crossvote/engine/application/queries"
	"crossvote/engine/application/workers"
	"crossvote/engine/domain/entities"
	"crossvote/engine/ports"
)

type Module struct {
	Handler            httpadapter.Handler
	EntitlementExpirer workers.EntitlementExpirer
	PinExpirer         workers.PinExpirer

	Store     *memory.Store
	Transport *memory.Transport
	Notifier  *memory.Notifier
}

type Dependencies struct {
	Posts          ports.PostRepository
	Links          ports.CopyLinkRepository
	Votes          ports.VoteRepository
	Bans           ports.BanRepository
	Entitlements   ports.EntitlementRepository
	Quotas         ports.QuotaRepository
	Pins           ports.PinRepository
	Spaces         ports.SpaceRepository
	Markers        ports.ReplicationMarkerStore
	Transport      ports.Transport
	Notifier       ports.Notifier
	Publisher      ports.EventPublisher
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	DailyLimit     int
	PinDuration    time.Duration
	// FallbackSpaces seeds replication destinations for deployments where no
	// space has been configured through the API yet.
	FallbackSpaces []entities.SpaceSettings
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	limiter := commands.QuotaLimiter{
		Quotas:     deps.Quotas,
		Clock:      deps.Clock,
		DailyLimit: deps.DailyLimit,
	}
	replicator := commands.ReplicateUseCase{
		Entitlements: deps.Entitlements,
		Spaces:       deps.Spaces,
		Links:        deps.Links,
		Markers:      deps.Markers,
		Transport:    deps.Transport,
		Publisher:    deps.Publisher,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Fallback:     deps.FallbackSpaces,
		Logger:       deps.Logger,
	}
	submitUseCase := commands.SubmitPostUseCase{
		Posts:        deps.Posts,
		Links:        deps.Links,
		Bans:         deps.Bans,
		Entitlements: deps.Entitlements,
		Spaces:       deps.Spaces,
		Pins:         deps.Pins,
		Transport:    deps.Transport,
		Limiter:      limiter,
		Replicator:   replicator,
		Publisher:    deps.Publisher,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		PinDuration:  deps.PinDuration,
		Logger:       deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Posts:        deps.Posts,
		Links:        deps.Links,
		Votes:        deps.Votes,
		Bans:         deps.Bans,
		Entitlements: deps.Entitlements,
		Transport:    deps.Transport,
		Notifier:     deps.Notifier,
		Publisher:    deps.Publisher,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	entitlementUseCase := commands.EntitlementUseCase{
		Entitlements: deps.Entitlements,
		Publisher:    deps.Publisher,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	moderationUseCase := commands.ModerationUseCase{
		Bans:   deps.Bans,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	spaceUseCase := commands.SpaceUseCase{
		Spaces: deps.Spaces,
		Logger: deps.Logger,
	}
	postQueries := queries.PostQueries{
		Posts: deps.Posts,
		Links: deps.Links,
	}
	grantQueries := queries.EntitlementQueries{
		Entitlements: deps.Entitlements,
		Clock:        deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			Posts:        submitUseCase,
			Votes:        voteUseCase,
			Entitlements: entitlementUseCase,
			Moderation:   moderationUseCase,
			Spaces:       spaceUseCase,
			PostQueries:  postQueries,
			Grants:       grantQueries,
			Logger:       deps.Logger,
		},
		EntitlementExpirer: workers.EntitlementExpirer{
			Queries:      grantQueries,
			Entitlements: entitlementUseCase,
			Notifier:     deps.Notifier,
			Clock:        deps.Clock,
			Logger:       deps.Logger,
		},
		PinExpirer: workers.PinExpirer{
			Pins:      deps.Pins,
			Spaces:    deps.Spaces,
			Transport: deps.Transport,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store and fakes.
// Tests and local runs use it to exercise full flows without infrastructure.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	transport := memory.NewTransport()
	notifier := memory.NewNotifier()
	module := NewModule(Dependencies{
		Posts:        store,
		Links:        store,
		Votes:        store,
		Bans:         store,
		Entitlements: store,
		Quotas:       store,
		Pins:         store,
		Spaces:       store,
		Markers:      store,
		Transport:    transport,
		Notifier:     notifier,
		Clock:        store,
		IDGen:        store,
		Logger:       logger,
	})
	module.Store = store
	module.Transport = transport
	module.Notifier = notifier
	return module
}
