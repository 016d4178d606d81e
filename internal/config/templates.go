package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func WriteTemplate(path, format string, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o644)
}

const tomlTemplate = `project_dir = "."
# workspace_root defaults to $WORKON_HOME, then ~/.virtualenvs
workspace_root = ""
workspace_env = "WORKON_HOME"
env_name = "redock"
manifest = "requirements.txt"
docs_dir = "docs"
docs_command = ["make", "html"]
test_command = ["python", "setup.py", "test"]
dist_command = ["python", "setup.py", "sdist", "upload"]
virtualenv_command = ["virtualenv"]
installer_package = "pip-accel"
installer_command = "pip-accel"
git_remote = ""
artifacts = [".tox", "build", "dist", "docs/build", "*.egg-info", "*.egg"]
metrics_textfile = ""
`

const yamlTemplate = `project_dir: "."
# workspace_root defaults to $WORKON_HOME, then ~/.virtualenvs
workspace_root: ""
workspace_env: WORKON_HOME
env_name: redock
manifest: requirements.txt
docs_dir: docs
docs_command: [make, html]
test_command: [python, setup.py, test]
dist_command: [python, setup.py, sdist, upload]
virtualenv_command: [virtualenv]
installer_package: pip-accel
installer_command: pip-accel
git_remote: ""
artifacts: [.tox, build, dist, docs/build, "*.egg-info", "*.egg"]
metrics_textfile: ""
`
