package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol"
	"github.com/autopeer-io/missioncontrol/pkg/app"
	"github.com/autopeer-io/missioncontrol/pkg/log"
	"github.com/autopeer-io/missioncontrol/pkg/options"
)

type MissionControlOptions struct {
	HttpOptions    *options.HttpOptions    `json:"http" mapstructure:"http"`
	GrpcOptions    *options.GrpcOptions    `json:"grpc" mapstructure:"grpc"`
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	S3Options      *options.S3Options      `json:"s3" mapstructure:"s3"`
	MissionOptions *options.MissionOptions `json:"mission" mapstructure:"mission"`
	Log            *log.Options            `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*MissionControlOptions)(nil)

func NewMissionControlOptions() *MissionControlOptions {
	return &MissionControlOptions{
		HttpOptions:    options.NewHttpOptions(),
		GrpcOptions:    options.NewGrpcOptions(),
		MqttOptions:    options.NewMqttOptions(),
		S3Options:      options.NewS3Options(),
		MissionOptions: options.NewMissionOptions(),
		Log:            log.NewOptions(),
	}
}

func (o *MissionControlOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.GrpcOptions.AddFlags(fss.FlagSet("grpc"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.MissionOptions.AddFlags(fss.FlagSet("mission"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *MissionControlOptions) Complete() error {
	return nil
}

func (o *MissionControlOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.GrpcOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.MissionOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *MissionControlOptions) Config() (*missioncontrol.Config, error) {
	return &missioncontrol.Config{
		HttpOptions:    o.HttpOptions,
		GrpcOptions:    o.GrpcOptions,
		MqttOptions:    o.MqttOptions,
		S3Options:      o.S3Options,
		MissionOptions: o.MissionOptions,
	}, nil
}
