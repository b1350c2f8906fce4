package audit

import (
	"fmt"
	"io/fs"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/temirov/fsaudit/internal/rules"
)

const (
	ruleFileReadErrorTemplateConstant    = "failed to read rule file: %w"
	ruleFileDecodeErrorTemplateConstant  = "failed to decode rule file: %w"
	numericModeOutOfRangeTemplateValue   = "numeric mode %o exceeds permission bits"
	permissionBitsUpperBoundConstant     = 0o777
	defaultRuleImportanceValueConstant   = rules.ImportanceMedium
	ruleImportanceErrorTemplateConstant  = "rule for %q: %w"
	ruleOwnershipPartialTemplateConstant = "rule for %q declares only one of uid/gid"
)

// RuleConfiguration is the file representation of one audit rule. Mode values
// may be octal strings, symbolic strings, or plain integers; the decode hook
// normalizes all three to permission bits during unmarshalling.
type RuleConfiguration struct {
	Path          string       `mapstructure:"path"`
	Mode          *fs.FileMode `mapstructure:"mode"`
	DirectoryMode *fs.FileMode `mapstructure:"directory_mode"`
	UserID        *uint32      `mapstructure:"uid"`
	GroupID       *uint32      `mapstructure:"gid"`
	LinkTarget    string       `mapstructure:"link_target"`
	Importance    string       `mapstructure:"importance"`
	Recursive     bool         `mapstructure:"recursive"`
	Follow        bool         `mapstructure:"follow"`
	Comparison    string       `mapstructure:"comparison"`
	RequireExists bool         `mapstructure:"require_exists"`
}

// RuleFileConfiguration is the top-level shape of a rule file.
type RuleFileConfiguration struct {
	Rules []RuleConfiguration `mapstructure:"rules"`
}

// ToRule converts the file representation into a policy rule. Importance
// defaults to medium when the file leaves it out.
func (configuration RuleConfiguration) ToRule() (rules.Rule, error) {
	importance := defaultRuleImportanceValueConstant
	if len(configuration.Importance) > 0 {
		parsedImportance, importanceError := rules.ParseImportance(configuration.Importance)
		if importanceError != nil {
			return rules.Rule{}, fmt.Errorf(ruleImportanceErrorTemplateConstant, configuration.Path, importanceError)
		}
		importance = parsedImportance
	}

	var expectedOwner *rules.Ownership
	switch {
	case configuration.UserID != nil && configuration.GroupID != nil:
		expectedOwner = &rules.Ownership{UserID: *configuration.UserID, GroupID: *configuration.GroupID}
	case configuration.UserID != nil || configuration.GroupID != nil:
		return rules.Rule{}, fmt.Errorf(ruleOwnershipPartialTemplateConstant, configuration.Path)
	}

	return rules.Rule{
		Path:                configuration.Path,
		ExpectedMode:        configuration.Mode,
		DirectoryMode:       configuration.DirectoryMode,
		ExpectedOwner:       expectedOwner,
		ExpectedLinkTarget:  configuration.LinkTarget,
		Importance:          importance,
		Recursive:           configuration.Recursive,
		FollowSymlinkTarget: configuration.Follow,
		ModeComparison:      rules.ModeComparison(configuration.Comparison),
		RequireExists:       configuration.RequireExists,
	}, nil
}

// modeDecodeHook converts rule file mode values into permission bits. Strings
// go through the full mode grammar (octal, long symbolic, short symbolic);
// integers are taken as already-octal permission bits.
func modeDecodeHook() mapstructure.DecodeHookFuncType {
	fileModeType := reflect.TypeOf(fs.FileMode(0))
	fileModePointerType := reflect.PointerTo(fileModeType)
	return func(fromType reflect.Type, toType reflect.Type, value any) (any, error) {
		if toType != fileModeType && toType != fileModePointerType {
			return value, nil
		}
		switch typedValue := value.(type) {
		case string:
			return rules.ParseMode(typedValue)
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float64:
			numericValue := reflect.ValueOf(typedValue).Convert(reflect.TypeOf(int64(0))).Int()
			if numericValue < 0 || numericValue > permissionBitsUpperBoundConstant {
				return nil, fmt.Errorf(numericModeOutOfRangeTemplateValue, numericValue)
			}
			return fs.FileMode(numericValue), nil
		default:
			return value, nil
		}
	}
}

// LoadRuleFile reads audit rules from a YAML, JSON, or TOML file. Unreadable
// or undecodable files abort the load; a rule that decodes but does not
// convert is returned as a rejection, so one bad rule cannot sink its
// neighbours. Semantic validation of the converted rules stays with the audit
// service.
func LoadRuleFile(ruleFilePath string) ([]rules.Rule, []RuleRejection, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigFile(ruleFilePath)
	if readError := viperInstance.ReadInConfig(); readError != nil {
		return nil, nil, fmt.Errorf(ruleFileReadErrorTemplateConstant, readError)
	}

	var fileConfiguration RuleFileConfiguration
	decodeError := viperInstance.Unmarshal(&fileConfiguration, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		modeDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if decodeError != nil {
		return nil, nil, fmt.Errorf(ruleFileDecodeErrorTemplateConstant, decodeError)
	}

	var rejections []RuleRejection
	convertedRules := make([]rules.Rule, 0, len(fileConfiguration.Rules))
	for _, ruleConfiguration := range fileConfiguration.Rules {
		convertedRule, conversionError := ruleConfiguration.ToRule()
		if conversionError != nil {
			rejections = append(rejections, RuleRejection{Path: ruleConfiguration.Path, Reason: conversionError})
			continue
		}
		convertedRules = append(convertedRules, convertedRule)
	}
	return convertedRules, rejections, nil
}
