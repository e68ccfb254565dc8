package simulation

import (
	"strings"
	"testing"

	"github.com/Ofi-Services/unified-backend/internal/random"
	"github.com/Ofi-Services/unified-backend/model"
)

func TestDefaultGraph_validates(t *testing.T) {
	if err := DefaultGraph().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestDefaultGraph_entries(t *testing.T) {
	g := DefaultGraph()
	tests := []struct {
		typ  model.WorkflowType
		want Stage
	}{
		{model.WorkflowPolicyOnboarding, IngresarTramite},
		{model.WorkflowRenewal, RegistroCompromiso},
		{model.WorkflowIssuance, RegistroCompromiso},
	}
	for _, tt := range tests {
		got, ok := g.Entry(tt.typ)
		if !ok || got != tt.want {
			t.Errorf("Entry(%q) = %s, %v; want %s", tt.typ, got, ok, tt.want)
		}
	}
	if _, ok := g.Entry("Claims"); ok {
		t.Error("Entry(Claims) should not resolve")
	}
}

func TestDefaultGraph_returnTargets(t *testing.T) {
	g := DefaultGraph()
	want := map[Stage]Stage{
		DevolucionBrockerRevision:          RegistrarPO,
		DevolucionComercialDesdeValidacion: EnviarRevisionSuscripcion,
		DevolucionDesdeSuscripcion:         EnviarRevisionSuscripcion,
		DevolucionComercialDesdeVisado:     Visado,
		DevolucionComercialDesdeEmision:    RevisionEmision,
		DevolucionVisadoDesdeEmision:       Visado,
		DevolucionEmisionCorregir:          FinalizarEnvioPolizaFactura,
		DevolucionComercialCorregir:        FinalizarEnvioPolizaFactura,
	}
	for _, s := range Stages() {
		node := g.Node(s)
		target, isReturn := want[s]
		if node.Returns != isReturn {
			t.Errorf("%s.Returns = %v, want %v", s, node.Returns, isReturn)
			continue
		}
		if isReturn && node.ReturnTo != target {
			t.Errorf("%s.ReturnTo = %s, want %s", s, node.ReturnTo, target)
		}
	}
}

func TestDefaultGraph_terminals(t *testing.T) {
	g := DefaultGraph()
	want := map[Stage]Outcome{
		DeclinarSuscripcion: OutcomeDeclinedByCompany,
		RechazarBrocker:     OutcomeDeclinedByBroker,
		DeclinarBrocker:     OutcomeDeclinedByBroker,
		RecepcionPago:       OutcomeApproved,
	}
	for _, s := range Stages() {
		if s == Start {
			continue
		}
		node := g.Node(s)
		outcome, terminal := want[s]
		if node.Terminal() != terminal {
			t.Errorf("%s.Terminal() = %v, want %v", s, node.Terminal(), terminal)
		}
		if terminal && node.Outcome != outcome {
			t.Errorf("%s.Outcome = %s, want %s", s, node.Outcome, outcome)
		}
	}
}

func TestGraph_Next(t *testing.T) {
	g := DefaultGraph()

	t.Run("single edge draws nothing", func(t *testing.T) {
		src := random.NewScripted(42)
		got, ok := g.Next(src, AceptarBrocker)
		if !ok || got != Visado {
			t.Errorf("Next(AceptarBrocker) = %s, %v; want Visado", got, ok)
		}
		if src.Calls() != 0 {
			t.Errorf("draws = %d, want 0", src.Calls())
		}
	})

	t.Run("terminal", func(t *testing.T) {
		src := random.NewScripted()
		got, ok := g.Next(src, RecepcionPago)
		if ok || got != RecepcionPago {
			t.Errorf("Next(RecepcionPago) = %s, %v; want RecepcionPago, false", got, ok)
		}
	})

	boundaries := []struct {
		from Stage
		draw int
		want Stage
	}{
		{RegistrarPO, 9, DevolucionBrockerRevision},
		{RegistrarPO, 10, EnviarEmision},
		{EnviarRevisionSuscripcion, 49, ValidarInfoEnviada},
		{EnviarRevisionSuscripcion, 50, RevisionSuscripcion},
		{RevisionEmision, 9, DevolucionComercialDesdeEmision},
		{RevisionEmision, 19, DevolucionVisadoDesdeEmision},
		{RevisionEmision, 20, ControlCalidadDocumental},
		{RevisionEmision, 49, ControlCalidadDocumental},
		{RevisionEmision, 50, IniciarFacturacion},
		{FinalizarEnvioPolizaFactura, 79, FinalizarProcesoEmision},
		{FinalizarEnvioPolizaFactura, 80, DevolucionEmisionCorregir},
		{FinalizarEnvioPolizaFactura, 99, DevolucionComercialCorregir},
	}
	for _, tt := range boundaries {
		got, ok := g.Next(random.NewScripted(tt.draw), tt.from)
		if !ok || got != tt.want {
			t.Errorf("Next(%s) with draw %d = %s, want %s", tt.from, tt.draw, got, tt.want)
		}
	}
}

func TestGraph_NextFrequencies(t *testing.T) {
	g := DefaultGraph()
	src := random.New(11)
	const n = 20000
	counts := map[Stage]int{}
	for i := 0; i < n; i++ {
		s, _ := g.Next(src, FinalizarEnvioPolizaFactura)
		counts[s]++
	}
	share := float64(counts[FinalizarProcesoEmision]) / n
	if share < 0.78 || share > 0.82 {
		t.Errorf("success share = %.3f, want about 0.80", share)
	}
}

func TestGraph_ValidateReportsProblems(t *testing.T) {
	g := DefaultGraph()
	g.nodes[RegistrarPO].Edges = []Edge{{DevolucionBrockerRevision, 20}, {EnviarEmision, 90}}
	g.nodes[DevolucionComercialDesdeVisado] = Node{Edges: []Edge{{RevisionEmision, 100}}, ReturnTo: Visado, Returns: true}
	g.nodes[ControlCalidadDocumental] = Node{}
	delete(g.entry, model.WorkflowPolicyOnboarding)

	err := g.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	for _, want := range []string{
		"RegistrarPO: edge weights sum to 110",
		"DevolucionComercialDesdeVisado: return stage must lead only to Visado",
		"ControlCalidadDocumental: terminal stage has no outcome",
		`no entry stage for workflow type "Policy onboarding"`,
		"IngresarTramite: unreachable",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestOutcome_String(t *testing.T) {
	tests := map[Outcome]string{
		OutcomeNone:              "none",
		OutcomeApproved:          "approved",
		OutcomeDeclinedByCompany: "declined_by_company",
		OutcomeDeclinedByBroker:  "declined_by_broker",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}
