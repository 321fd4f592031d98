package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	appsigning "github.com/jhoicas/firmador-ais/internal/application/signing"
	domsigning "github.com/jhoicas/firmador-ais/internal/domain/signing"
	infraais "github.com/jhoicas/firmador-ais/internal/infrastructure/ais"
	"github.com/jhoicas/firmador-ais/internal/infrastructure/document"
	"github.com/jhoicas/firmador-ais/internal/infrastructure/tracker"
	"github.com/jhoicas/firmador-ais/pkg/config"
)

// SignCmd firma el lote de documentos con el modo que resulta de los flags.
type SignCmd struct {
	Type    string   `help:"sign o timestamp" enum:"sign,timestamp" required:""`
	Infile  []string `help:"Documento de entrada (repetible)" required:"" sep:"none"`
	Outfile []string `help:"Paquete de salida, uno por entrada y en el mismo orden" required:"" sep:"none"`
	DN      string   `name:"dn" help:"Distinguished name del firmante (activa on-demand)"`

	StepUpMSISDN string `name:"stepup-msisdn" help:"Móvil del firmante para el consentimiento"`
	StepUpMsg    string `name:"stepup-msg" help:"Mensaje de consentimiento; admite #TRANSID#"`
	StepUpLang   string `name:"stepup-lang" help:"Idioma del mensaje (en, de, fr, it)"`
	StepUpSerial string `name:"stepup-serial" help:"Serial del medio de autenticación (opcional)"`

	Reason   string `help:"Motivo de la firma"`
	Location string `help:"Lugar de la firma"`
	Contact  string `help:"Contacto del firmante"`
}

// params traduce los flags a parámetros del selector.
func (s *SignCmd) params(cfg *config.Config) domsigning.Params {
	return domsigning.Params{
		Type:              s.Type,
		InputPaths:        s.Infile,
		OutputPaths:       s.Outfile,
		DistinguishedName: s.DN,
		MSISDN:            s.StepUpMSISDN,
		Message:           s.StepUpMsg,
		Language:          s.StepUpLang,
		SerialNumber:      s.StepUpSerial,
		Reason:            s.Reason,
		Location:          s.Location,
		ContactInfo:       s.Contact,
		CredentialFiles:   cfg.AIS.CredentialFiles(),
	}
}

func (s *SignCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	log := globals.newLogger(cfg)

	if err := cfg.AIS.Validate(); err != nil {
		return err
	}
	sel, err := domsigning.NewSelector(log).Select(s.params(cfg))
	if err != nil {
		return err
	}

	client, err := infraais.NewClient(infraais.TransportConfig{
		CertFile:     cfg.AIS.CertFile,
		KeyFile:      cfg.AIS.CertKey,
		CertPassword: cfg.AIS.CertPassword,
		CAFile:       cfg.AIS.CAFile,
		Timeout:      cfg.AIS.Timeout(),
	}, log)
	if err != nil {
		return err
	}

	engine := appsigning.NewEngine(appsigning.EngineConfig{
		Endpoint:        cfg.AIS.URL,
		DigestAlgorithm: cfg.AIS.Digest(),
		Customer:        cfg.AIS.Customer,
		KeyStatic:       cfg.AIS.KeyStatic,
		KeyOnDemand:     cfg.AIS.KeyOnDemand,
		PollInterval:    cfg.AIS.PollInterval(),
		PollRetries:     cfg.AIS.PollRetries,
		Verbose:         globals.Verbose > 0,
	}, client, document.NewBundleEngine(log), tracker.NewLogTracker(log), log)

	docs := make([]appsigning.Document, len(sel.InputPaths))
	for i := range sel.InputPaths {
		docs[i] = appsigning.Document{Index: i, InputPath: sel.InputPaths[i], OutputPath: sel.OutputPaths[i]}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.AIS.OperationTimeout())
	defer cancel()

	correlationID := uuid.NewString()
	if _, err := engine.Sign(ctx, correlationID, docs, sel); err != nil {
		return err
	}
	for _, d := range docs {
		fmt.Fprintln(globals.out(), d.OutputPath)
	}
	return nil
}
