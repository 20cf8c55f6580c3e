// Package container is a service registry keyed by name, backed by a
// samber/do injector.
//
// Services are registered in one of three ways:
//
//   - Set: shared, built once on first use (concurrent first uses build once)
//   - Factory: built anew on every Get
//   - Value: a ready value
//
// Example:
//
//	c := container.New()
//	c.Value("dsn", "postgres://localhost/app")
//	c.Set("db", func(ctx context.Context, c *container.Container) (any, error) {
//	    dsn, err := container.Resolve[string](ctx, c, "dsn")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return sql.Open("pgx", dsn)
//	})
//
//	db, err := container.Resolve[*sql.DB](ctx, c, "db")
package container
