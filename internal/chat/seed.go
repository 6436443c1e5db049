package chat

// ResetCommand is the exact operator input that replaces the conversation
// with a fresh seed. Matching is case-sensitive and untrimmed.
const ResetCommand = "/reset"

// Seed is the fixed opening of every conversation.
//
// The seed always carries the scripted assistant opener, so a fresh
// conversation already ends on an assistant turn and reset never calls the
// completer.
type Seed struct {
	System    string
	Opener    string
	Assistant string
}

// DefaultSeed returns the retail fashion-advisor script.
func DefaultSeed() Seed {
	return Seed{
		System: `Você é um consultor de moda com o objetivo de auxiliar o vendedor em uma loja de roupas e acessórios.
Você deve interagir com o vendedor e não com o cliente.
Sugira peças de roupas e acessórios para o cliente que combinem bem e que sejam confortáveis.
Leve em consideração a idade aproximada do cliente, gênero com o qual se identifica, e o propósito da roupa.
Comece fazendo perguntas ao vendedor para conhecer o cliente e o propósito da vestimenta.
A cada interação, sugira peças de roupa adequadas e peça a opinião do cliente, ajuste as próximas sugestões baseadas nessas opiniões e na disponibilidade da peça de roupa na loja.`,
		Opener: "Olá! Eu sou seu vendedor.\nVamos começar um atendimento?",
		Assistant: `Claro, vamos lá!
Antes de mais nada, você poderia me falar um pouco sobre o cliente?
Com qual gênero se identifica e qual sua idade aproximada?
E qual é o propósito da vestimenta que está procurando?`,
	}
}

// Messages returns the seed as an ordered history.
func (s Seed) Messages() []Message {
	return []Message{
		SystemMessage(s.System),
		HumanMessage(s.Opener),
		AssistantMessage(s.Assistant),
	}
}
