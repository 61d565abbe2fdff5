package meetings

// TermText is the confidentiality term every member must accept before
// confirming presence at a meeting.
const TermText = `TERMO DE CONFIDENCIALIDADE E SIGILO

Ao confirmar presença nesta reunião, declaro estar ciente de que todas as informações compartilhadas no âmbito da Confraria são estritamente confidenciais. Comprometo-me a não divulgar, reproduzir ou utilizar, para fins externos, quaisquer informações estratégicas, comerciais, financeiras ou pessoais aqui discutidas, sob pena de exclusão imediata da Confraria e responsabilização civil conforme a legislação vigente.`
