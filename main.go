package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/app"
	"github.com/km-arc/go-container/framework/container"
	gohttp "github.com/km-arc/go-container/framework/http"
	"github.com/km-arc/go-container/framework/routing"
)

// Greeter is autowired from its constructor.
type Greeter struct {
	log      *zap.Logger
	greeting string
}

func NewGreeter(log *zap.Logger, greeting string) *Greeter {
	return &Greeter{log: log, greeting: greeting}
}

func (g *Greeter) Greet(name string) string {
	g.log.Debug("greeting", zap.String("name", name))
	return g.greeting + ", " + name + "!"
}

// GreeterServiceProvider binds the greeter and its route.
type GreeterServiceProvider struct {
	container.BaseProvider
}

func (p *GreeterServiceProvider) Register(c *container.Container) error {
	if err := container.DefineType[*Greeter](c, NewGreeter,
		container.Arg("log"),
		container.ArgDefault("greeting", "Hello"),
	); err != nil {
		return err
	}
	c.Bind("greeter", container.Type(container.TypeNameOf[*Greeter]())).Share()
	return nil
}

func (p *GreeterServiceProvider) Boot(c *container.Container) error {
	router, err := container.Resolve[*routing.Router](c, "router")
	if err != nil {
		return err
	}
	router.Get("/hello/{name}", func(w http.ResponseWriter, r *http.Request) {
		res := gohttp.NewResponse(w)
		g, err := container.Resolve[*Greeter](c, "greeter")
		if err != nil {
			res.ServerError(err.Error())
			return
		}
		res.Success(map[string]string{"message": g.Greet(routing.Param(r, "name"))})
	})
	return nil
}

func main() {
	application, err := app.New() // loads .env if present
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// *zap.Logger is a dependency of Greeter; make the "logger" binding
	// reachable under its type name.
	application.Alias("logger", container.TypeNameOf[*zap.Logger]())

	if err := application.Register(&GreeterServiceProvider{}); err != nil {
		application.Logger().Fatal("register", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Logger().Fatal("run", zap.Error(err))
	}
}
