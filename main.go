package main

import (
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"atrium-api/datatable"
	"atrium-api/handlers"
	"atrium-api/initializers"
	"atrium-api/middleware"
	"atrium-api/pkg/events"
	"atrium-api/pkg/notify"
	"atrium-api/policy"
	"atrium-api/repository"
	"atrium-api/websocket"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// recipientResolver adapts the users and teams repositories to the
// notifier's audience-resolution interface.
type recipientResolver struct {
	users *repository.UsersRepository
	teams *repository.TeamsRepository
}

func (r recipientResolver) TeamMemberIDs(teamID int) ([]int, error) {
	return r.teams.TeamMemberIDs(teamID)
}

func (r recipientResolver) ActiveUserIDs() ([]int, error) {
	return r.users.ActiveUserIDs()
}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET must be set and at least 32 characters")
	}

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", dbURL)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
		}
		log.Printf("DB connection failed: %v, retrying in 2s...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal("Could not connect to database:", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal("Migration driver error:", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		log.Fatal("Migration init error:", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("Migration failed:", err)
	}

	if err := initializers.InitDefaults(db); err != nil {
		log.Fatal("Failed to initialize default data:", err)
	}
	if err := initializers.InitMinio(); err != nil {
		log.Fatal("Failed to initialize Minio:", err)
	}

	usersRepo := repository.NewUsersRepository(db)
	teamsRepo := repository.NewTeamsRepository(db)
	rolesRepo := repository.NewRolesRepository(db)
	notificationsRepo := repository.NewNotificationsRepository(db)
	templatesRepo := repository.NewEmailTemplatesRepository(db)
	savedViewsRepo := repository.NewSavedViewsRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	authz := policy.NewAuthorizer(rolesRepo)

	// Component registries: every column and filter type must have a
	// renderer or startup fails here.
	columnReg, err := datatable.DefaultColumnRegistry()
	if err != nil {
		log.Fatal("Column registry error:", err)
	}
	filterReg, err := datatable.DefaultFilterRegistry()
	if err != nil {
		log.Fatal("Filter registry error:", err)
	}
	tables, tablePerms, err := buildTables(columnReg, rolesRepo)
	if err != nil {
		log.Fatal("Table definition error:", err)
	}

	hub := websocket.NewHub()
	notifier := notify.New(notificationsRepo, recipientResolver{users: usersRepo, teams: teamsRepo}, hub)

	// Every persisted-notification mutation, from any code path, reaches
	// the owner's channel through this hook.
	notificationsRepo.SetChangeHook(func(userID, notificationID int, action string) {
		_ = hub.Broadcast(websocket.UserChannel(userID), events.NotificationChanged, events.NotificationChangedEvent{
			NotificationID: notificationID,
			Action:         action,
		})
	})

	if os.Getenv("GIN_MODE") == "release" || strings.ToLower(os.Getenv("APP_ENV")) == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := middleware.NewLogger()

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(gin.Recovery())

	trustedProxies := os.Getenv("TRUSTED_PROXIES")
	if trustedProxies != "" {
		parts := strings.Split(trustedProxies, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := r.SetTrustedProxies(parts); err != nil {
			log.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
		}
	} else {
		_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	}

	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RateLimitMiddleware())

	authHandler := handlers.NewAuthHandler(usersRepo, rolesRepo, notifier, jwtSecret)
	usersHandler := handlers.NewUsersHandler(usersRepo, authz)
	preferencesHandler := handlers.NewPreferencesHandler(usersRepo, notifier)
	teamsHandler := handlers.NewTeamsHandler(teamsRepo, usersRepo, rolesRepo, authz, notifier)
	rolesHandler := handlers.NewRolesHandler(rolesRepo, authz)
	templatesHandler := handlers.NewEmailTemplatesHandler(templatesRepo, authz)
	notificationsHandler := handlers.NewNotificationsHandler(notificationsRepo, authz)
	savedViewsHandler := handlers.NewSavedViewsHandler(savedViewsRepo, tables)
	datatablesHandler := handlers.NewDatatablesHandler(db, tables, columnReg, filterReg, authz, tablePerms)
	dashboardHandler := handlers.NewDashboardHandler(dashboardRepo, notificationsRepo, authz)

	r.GET("/health", handlers.HealthCheck(db))
	r.GET("/verify-email/:token", preferencesHandler.VerifyEmail)
	r.GET("/ws/session/:sessionId", websocket.ServeSessionWS(hub))

	authPublic := r.Group("/", middleware.RateLimitAuthMiddleware())
	authPublic.POST("/register", authHandler.Register)
	authPublic.POST("/login", authHandler.Login)

	auth := r.Group("/", handlers.AuthMiddleware(jwtSecret))
	{
		auth.GET("/ws", websocket.ServeWS(hub, teamsRepo))

		auth.GET("/me", usersHandler.Me)
		auth.PATCH("/me/preferences", preferencesHandler.UpdatePreferences)
		auth.POST("/me/avatar", usersHandler.UploadAvatar)

		auth.GET("/users/:id", usersHandler.GetUser)
		auth.PATCH("/users/:id", usersHandler.UpdateUser)
		auth.PATCH("/users/:id/delete", usersHandler.DeleteUser)
		auth.PATCH("/users/:id/restore", usersHandler.RestoreUser)
		auth.POST("/users/:id/roles", rolesHandler.AssignRole)
		auth.DELETE("/users/:id/roles", rolesHandler.RemoveRole)

		auth.POST("/teams", teamsHandler.CreateTeam)
		auth.GET("/teams", teamsHandler.ListMyTeams)
		auth.GET("/teams/:id", teamsHandler.GetTeam)
		auth.PATCH("/teams/:id", teamsHandler.UpdateTeam)
		auth.PATCH("/teams/:id/delete", teamsHandler.DeleteTeam)
		auth.PATCH("/teams/:id/restore", teamsHandler.RestoreTeam)
		auth.GET("/teams/:id/members", teamsHandler.ListMembers)
		auth.POST("/teams/:id/invite", teamsHandler.InviteMember)
		auth.DELETE("/teams/:id/members/:userId", teamsHandler.RemoveMember)
		auth.PATCH("/teams/:id/members/:userId/role", teamsHandler.SetMemberRole)

		auth.GET("/roles", rolesHandler.ListRoles)
		auth.GET("/permissions", rolesHandler.ListPermissions)
		auth.POST("/roles/:id/permissions", rolesHandler.GrantPermission)
		auth.DELETE("/roles/:id/permissions", rolesHandler.RevokePermission)

		auth.POST("/email-templates", templatesHandler.Create)
		auth.GET("/email-templates", templatesHandler.List)
		auth.GET("/email-templates/:id", templatesHandler.Get)
		auth.PATCH("/email-templates/:id", templatesHandler.Update)
		auth.PATCH("/email-templates/:id/delete", templatesHandler.Delete)
		auth.PATCH("/email-templates/:id/restore", templatesHandler.Restore)
		auth.POST("/email-templates/:id/preview", templatesHandler.Preview)

		auth.GET("/notifications", notificationsHandler.List)
		auth.POST("/notifications/mark-read", notificationsHandler.MarkRead)
		auth.PATCH("/notifications/:id/delete", notificationsHandler.Delete)
		auth.PATCH("/notifications/:id/restore", notificationsHandler.Restore)
		auth.DELETE("/notifications/:id", notificationsHandler.ForceDelete)

		auth.POST("/saved-views", savedViewsHandler.Create)
		auth.GET("/saved-views", savedViewsHandler.List)
		auth.PATCH("/saved-views/:id", savedViewsHandler.Update)
		auth.PATCH("/saved-views/:id/delete", savedViewsHandler.Delete)
		auth.PATCH("/saved-views/:id/restore", savedViewsHandler.Restore)

		auth.GET("/datatables", datatablesHandler.ListTables)
		auth.GET("/datatables/:table", datatablesHandler.Query)

		auth.GET("/dashboard/metrics", dashboardHandler.Metrics)
		auth.GET("/dashboard/charts", dashboardHandler.Charts)
	}

	r.Run(":8080")
}

// buildTables declares every server-driven listing. Definitions are
// validated against the column registry once, at startup.
func buildTables(columnReg *datatable.Registry, rolesRepo *repository.RolesRepository) (map[string]*datatable.Table, map[string]string, error) {
	users := datatable.NewTable("users", "users", "id").
		BaseAlias("u").
		AddRelation(datatable.Relation{
			Path:          "roles",
			Table:         "roles",
			RelatedColumn: "id",
			Multi:         true,
			PivotTable:    "role_user",
			PivotLocal:    "user_id",
			PivotRelated:  "role_id",
		}).
		AddColumn(datatable.NewColumn("name", "Name", datatable.TypeText).Sortable().Searchable()).
		AddColumn(datatable.NewColumn("email", "Email", datatable.TypeLink).Sortable().Searchable().
			Option(datatable.OptLinkBase, "mailto:")).
		AddColumn(datatable.NewColumn("avatar_path", "Avatar", datatable.TypeAvatar)).
		AddColumn(datatable.NewColumn("verified", "Verified", datatable.TypeBoolean).
			DBColumn("email_verified_at IS NOT NULL")).
		AddColumn(datatable.NewColumn("roles", "Roles", datatable.TypeBadge).
			Relationship("roles", "name").
			Option(datatable.OptColor, "primary")).
		AddColumn(datatable.NewColumn("created_at", "Joined", datatable.TypeDate).Sortable()).
		AddFilter(datatable.NewFilter("roles", "Role", datatable.FilterRelationship).Options(rolesRepo)).
		AddFilter(datatable.NewFilter("verified", "Verified", datatable.FilterBoolean)).
		AddFilter(datatable.NewFilter("created_at", "Joined", datatable.FilterDateRange))

	teams := datatable.NewTable("teams", "teams", "id").
		BaseAlias("t").
		AddRelation(datatable.Relation{
			Path:          "owner",
			Table:         "users",
			LocalColumn:   "owner_id",
			RelatedColumn: "id",
		}).
		AddColumn(datatable.NewColumn("name", "Name", datatable.TypeText).Sortable().Searchable()).
		AddColumn(datatable.NewColumn("owner", "Owner", datatable.TypeText).
			Relationship("owner", "name").Sortable().Searchable()).
		AddColumn(datatable.NewColumn("created_at", "Created", datatable.TypeDate).Sortable()).
		AddFilter(datatable.NewFilter("created_at", "Created", datatable.FilterDateRange))

	templates := datatable.NewTable("email_templates", "email_templates", "id").
		BaseAlias("et").
		AddColumn(datatable.NewColumn("key", "Key", datatable.TypeText).Sortable().Searchable()).
		AddColumn(datatable.NewColumn("name", "Name", datatable.TypeText).Sortable().Searchable()).
		AddColumn(datatable.NewColumn("subject", "Subject", datatable.TypeText).Searchable()).
		AddColumn(datatable.NewColumn("modified_at", "Updated", datatable.TypeDatetime).Sortable())

	tables := map[string]*datatable.Table{}
	for _, t := range []*datatable.Table{users, teams, templates} {
		if err := t.Build(columnReg); err != nil {
			return nil, nil, err
		}
		tables[t.Name()] = t
	}
	perms := map[string]string{
		"users":           "users.read",
		"teams":           "teams.read",
		"email_templates": "email_templates.read",
	}
	return tables, perms, nil
}
