package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"privaflow/pkg/store"
)

type AppUser struct {
	UserID int64
	Role   string
}

type App struct {
	DBConn         *pgxpool.Pool
	Storage        store.RunStorage
	Queue          *amqp091.Channel
	Key            *keyfunc.Keyfunc
	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	storage store.RunStorage,
	queue *amqp091.Channel,
	key *keyfunc.Keyfunc,
	masterAPIKey string,
	masterUserID int64,
	masterUserRole string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := &App{
				DBConn:         db,
				Storage:        storage,
				Queue:          queue,
				Key:            key,
				MasterAPIKey:   masterAPIKey,
				MasterUserID:   masterUserID,
				MasterUserRole: masterUserRole,
			}
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
