package guard

import "strings"

// Route names and paths of the admin pages.
const (
	LoginPath    = "/login"
	HomePath     = "/"
	ProductsPath = "/products"
	SalesPath    = "/sales"
	BoletaPath   = "/boleta"

	LoginRoute = "login"
)

// Route is one entry of the navigation table.
type Route struct {
	Path         string
	Name         string
	RequiresAuth bool
	// Redirect, when set, sends allowed navigations elsewhere.
	Redirect string
}

// Routes is the navigation table of the admin front end.
var Routes = []Route{
	{Path: LoginPath, Name: LoginRoute},
	{Path: HomePath, RequiresAuth: true, Redirect: BoletaPath},
	{Path: ProductsPath, Name: "products", RequiresAuth: true},
	{Path: SalesPath, Name: "sales", RequiresAuth: true},
	{Path: BoletaPath, Name: "boleta", RequiresAuth: true},
}

// Decision is the outcome of a navigation check.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Lookup returns the route owning path. Sub-paths belong to their parent
// route ("/products/12" is "/products"). Unknown paths return false.
func Lookup(path string) (Route, bool) {
	path = clean(path)
	for _, r := range Routes {
		if r.Path == HomePath {
			if path == HomePath {
				return r, true
			}
			continue
		}
		if path == r.Path || strings.HasPrefix(path, r.Path+"/") {
			return r, true
		}
	}
	return Route{}, false
}

// Resolve decides a navigation to path.
func Resolve(path string, authenticated bool) Decision {
	route, ok := Lookup(path)
	if !ok {
		return Decision{Allow: true}
	}

	switch {
	case route.RequiresAuth && !authenticated:
		return Decision{RedirectTo: LoginPath}
	case route.Name == LoginRoute && authenticated:
		return Decision{RedirectTo: BoletaPath}
	case route.Redirect != "":
		return Decision{RedirectTo: route.Redirect}
	}
	return Decision{Allow: true}
}

func clean(path string) string {
	if path == "" {
		return HomePath
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
