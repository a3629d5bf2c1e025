package surveyflow

// Version is the release of the module. Builds may override it with
// -ldflags "-X github.com/aretw0/surveyflow.Version=...".
var Version = "0.4.0"
