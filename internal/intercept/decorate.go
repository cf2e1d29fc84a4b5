package intercept

import "context"

// Func decorates a one-argument, value-returning function.
func Func[A, R any](i *Interceptor, tag Tag, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	site := SiteOf(fn)
	return func(ctx context.Context, a A) (R, error) {
		i.Before(ctx, site, tag)
		return fn(ctx, a)
	}
}

// Func2 decorates a two-argument, value-returning function.
func Func2[A, B, R any](i *Interceptor, tag Tag, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	site := SiteOf(fn)
	return func(ctx context.Context, a A, b B) (R, error) {
		i.Before(ctx, site, tag)
		return fn(ctx, a, b)
	}
}

// Proc decorates a one-argument function that only returns an error.
func Proc[A any](i *Interceptor, tag Tag, fn func(context.Context, A) error) func(context.Context, A) error {
	site := SiteOf(fn)
	return func(ctx context.Context, a A) error {
		i.Before(ctx, site, tag)
		return fn(ctx, a)
	}
}
