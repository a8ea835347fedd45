package multi

// OnBeforeCompile registers a hook that runs before the module tree is
// scanned. A hook may call Composition().Begin and Declare modules that
// are not part of the tree.
func OnBeforeCompile(app *App, name string, fn LifecycleHook) error {
	return app.RegisterHookFn(PhaseBeforeCompile, name, fn)
}

// OnFinalized registers a hook that runs after every collection has been
// built and before any provider is instantiated.
//
// Example:
//
//	multi.OnFinalized(app, "audit", func(ctx context.Context, a *multi.App) error {
//	    for _, s := range a.Composition().Inspect() {
//	        a.Logger().Info("token", logger.String("name", s.Token))
//	    }
//	    return nil
//	})
func OnFinalized(app *App, name string, fn LifecycleHook) error {
	return app.RegisterHookFn(PhaseAfterFinalize, name, fn)
}

// OnStarted registers a hook that runs once the container is compiled.
func OnStarted(app *App, name string, fn LifecycleHook) error {
	return app.RegisterHookFn(PhaseAfterStart, name, fn)
}
