// Package interactive collects configuration values from the user through
// terminal prompts. Answers land in the configuration mapping that the
// rendering engine later consumes; defaults that are templates are rendered
// before being proposed.
package interactive

import (
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/c3ho/tutor/pkg/errors"
)

// languageCodes are the platform languages offered during setup.
var languageCodes = []string{
	"en", "ar", "de-de", "es-419", "es-es", "fr", "hi", "id", "it-it",
	"ja-jp", "ko-kr", "pt-br", "pt-pt", "ru", "th", "tr-tr", "uk",
	"vi", "zh-cn", "zh-tw",
}

// devHost is the hostname configured automatically for non-production
// platforms.
const devHost = "local.overhang.io"

// RenderFunc renders a string template against a configuration mapping.
// Wired to the engine's RenderString so defaults like "studio.{{ LMS_HOST }}"
// are proposed fully resolved.
type RenderFunc func(map[string]interface{}, string) (string, error)

// AskQuestions walks the user through the platform questionnaire, mutating
// config in place. defaults supplies fallback values for unset keys.
func AskQuestions(config, defaults map[string]interface{}, render RenderFunc) error {
	production := stringValue(config, defaults, "LMS_HOST") != devHost
	if err := survey.AskOne(&survey.Confirm{
		Message: "Are you configuring a production platform? Type 'n' if you are just testing locally",
		Default: production,
	}, &production); err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "prompt failed")
	}

	if !production {
		config["LMS_HOST"] = devHost
		config["CMS_HOST"] = "studio." + devHost
		config["ENABLE_HTTPS"] = false
	} else {
		if err := ask("Your website domain name for students (LMS)", "LMS_HOST", config, defaults, render); err != nil {
			return err
		}
		if strings.Contains(stringValue(config, defaults, "LMS_HOST"), "localhost") {
			return errors.New(errors.ErrInvalidInput,
				"'localhost' is not usable as the LMS domain name; answer 'n' to the production question to run locally")
		}
		if err := ask("Your website domain name for teachers (CMS)", "CMS_HOST", config, defaults, render); err != nil {
			return err
		}
	}

	if err := ask("Your platform name/title", "PLATFORM_NAME", config, defaults, render); err != nil {
		return err
	}
	if err := ask("Your public contact email address", "CONTACT_EMAIL", config, defaults, render); err != nil {
		return err
	}
	if err := askChoice("The default language code for the platform", "LANGUAGE_CODE", config, defaults, languageCodes); err != nil {
		return err
	}

	if production {
		if err := askBool("Activate SSL/TLS certificates for HTTPS access?", "ENABLE_HTTPS", config, defaults); err != nil {
			return err
		}
	}
	return nil
}

func ask(question, key string, config, defaults map[string]interface{}, render RenderFunc) error {
	fallback := stringValue(config, defaults, key)
	if render != nil && strings.Contains(fallback, "{{") {
		rendered, err := render(config, fallback)
		if err != nil {
			return err
		}
		fallback = rendered
	}

	var answer string
	if err := survey.AskOne(&survey.Input{Message: question, Default: fallback}, &answer); err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "prompt failed")
	}
	config[key] = answer
	return nil
}

func askBool(question, key string, config, defaults map[string]interface{}) error {
	fallback, _ := lookup(config, defaults, key).(bool)

	var answer bool
	if err := survey.AskOne(&survey.Confirm{Message: question, Default: fallback}, &answer); err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "prompt failed")
	}
	config[key] = answer
	return nil
}

func askChoice(question, key string, config, defaults map[string]interface{}, choices []string) error {
	var answer string
	if err := survey.AskOne(&survey.Select{
		Message: question,
		Options: choices,
		Default: stringValue(config, defaults, key),
	}, &answer); err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "prompt failed")
	}
	config[key] = answer
	return nil
}

func lookup(config, defaults map[string]interface{}, key string) interface{} {
	if v, ok := config[key]; ok {
		return v
	}
	return defaults[key]
}

func stringValue(config, defaults map[string]interface{}, key string) string {
	s, _ := lookup(config, defaults, key).(string)
	return s
}
