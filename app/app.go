package dfapp

import (
	appbase "github.com/datatools/dataforge/app/base"
	_ "github.com/datatools/dataforge/app/cataloghtml"
	_ "github.com/datatools/dataforge/app/dataset"
	_ "github.com/datatools/dataforge/app/healthcheck"
	_ "github.com/datatools/dataforge/app/init"
	_ "github.com/datatools/dataforge/app/registry"
)

var App = appbase.App
