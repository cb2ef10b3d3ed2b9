package resolve

// descriptions explain attributes to users, keyed by attribute name.
var descriptions = map[string]string{
	"server_name": "The name of the server, used for identification. Cloud resources are derived from it. " +
		"It must contain only letters, digits and dashes.",
	"server_target": "Path to the server file (.py or .js) or the command that starts the server " +
		"(e.g. 'my-server-exe --arg value').",
	"dockerfile": "Path of the Dockerfile to use or generate.",
	"runtime": "The runtime environment for your server. This determines the base Docker image " +
		"and dependency installation. Choose 'python' or 'node'.",
	"python_dependencies_file": "The file containing your Python dependencies. " +
		"Choose 'uv.lock', 'pyproject.toml' or 'requirements.txt'.",
	"python_version": "The Python version for your project (e.g. '3.11', '3.12'). " +
		"It selects the base Docker image.",
	"node_version": "The major Node.js version for your project (e.g. '18', '20'). " +
		"It selects the base Docker image.",
	"run_npm_build": "Whether to run `npm run build` during the Docker build. " +
		"This is typically required for TypeScript projects.",
	"providers.google.project":           "Google Cloud project ID, e.g. 'my-project-id'.",
	"providers.google.region":            "Google Cloud region. Defaults to 'us-central1'.",
	"providers.google.artifact_registry": "Artifact Registry repository ID. Defaults to '<server-name>-repo'.",
	"providers.google.service_name":      "Cloud Run service name. Defaults to '<server-name>-service'.",
}

// Describe returns the user-facing description of an attribute.
func Describe(attribute string) string {
	return descriptions[attribute]
}
