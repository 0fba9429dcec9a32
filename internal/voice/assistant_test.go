package voice

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/logiflow/internal/address"
	"github.com/zombor/logiflow/internal/lexicon"
	"github.com/zombor/logiflow/internal/locale"
)

type fakeAgenda struct {
	pending int
	next    *address.Record
	err     error
}

func (f *fakeAgenda) PendingCount(context.Context) (int, error) {
	return f.pending, f.err
}

func (f *fakeAgenda) NextStop(context.Context) (address.Record, bool, error) {
	if f.err != nil {
		return address.Record{}, false, f.err
	}
	if f.next == nil {
		return address.Record{}, false, nil
	}
	return *f.next, true, nil
}

var _ = Describe("Assistant", func() {
	var (
		log         *hostLog
		recognizer  *fakeRecognizer
		synthesizer *fakeSynthesizer
		engine      *Engine
		agenda      *fakeAgenda
		assistant   *Assistant
	)

	BeforeEach(func() {
		log = &hostLog{}
		recognizer = &fakeRecognizer{log: log}
		synthesizer = &fakeSynthesizer{log: log, instant: true}
		engine = NewEngine(recognizer, synthesizer, "en-US")
		agenda = &fakeAgenda{
			pending: 3,
			next:    &address.Record{Name: "João Silva", Street: "Rua A 123", City: "São Paulo"},
		}
		assistant = NewAssistant(engine, agenda, NewClassifier(lexicon.Default()), locale.Portuguese)
	})

	AfterEach(func() {
		Expect(engine.Close()).To(Succeed())
	})

	Describe("Reply", func() {
		DescribeTable("answers in portuguese",
			func(utterance string, intent Intent, reply string) {
				gotIntent, gotReply := assistant.Reply(context.Background(), utterance)
				Expect(gotIntent).To(Equal(intent))
				Expect(gotReply).To(Equal(reply))
			},
			Entry("count", "quantas entregas faltam", Count, "Você tem 3 entregas pendentes"),
			Entry("next", "próxima", Next, "Próxima entrega: João Silva. Rua A 123, São Paulo"),
			Entry("repeat reads the head again", "repetir", Repeat, "Próxima entrega: João Silva. Rua A 123, São Paulo"),
			Entry("unrecognized", "blah blah", Unrecognized, "Comando não reconhecido"),
		)

		It("should use the singular for one delivery", func() {
			agenda.pending = 1
			_, reply := assistant.Reply(context.Background(), "quantas")
			Expect(reply).To(Equal("Você tem 1 entrega pendente"))
		})

		It("should still count when nothing is pending", func() {
			agenda.pending = 0
			_, reply := assistant.Reply(context.Background(), "quantas")
			Expect(reply).To(Equal("Você tem 0 entregas pendentes"))
		})

		It("should say when there is no next delivery", func() {
			agenda.next = nil
			_, reply := assistant.Reply(context.Background(), "próxima")
			Expect(reply).To(Equal("Não há entregas pendentes"))
		})

		It("should skip empty address parts", func() {
			agenda.next = &address.Record{Street: "Rua B 9"}
			_, reply := assistant.Reply(context.Background(), "próxima")
			Expect(reply).To(Equal("Próxima entrega: Rua B 9"))
		})

		It("should apologize when the agenda fails", func() {
			agenda.err = errors.New("db closed")
			_, reply := assistant.Reply(context.Background(), "quantas")
			Expect(reply).To(Equal("Não consegui consultar as entregas"))
		})

		When("the language is switched", func() {
			BeforeEach(func() {
				assistant.SetLanguage(locale.English)
			})

			It("should classify and reply in the new language", func() {
				intent, reply := assistant.Reply(context.Background(), "how many deliveries are pending")
				Expect(intent).To(Equal(Count))
				Expect(reply).To(Equal("You have 3 pending deliveries"))
				Expect(assistant.Language()).To(Equal(locale.English))
			})
		})
	})

	Describe("listening", func() {
		BeforeEach(func() {
			Expect(assistant.Start(nil)).To(Succeed())
		})

		It("should speak the answer to a command in the voice locale", func() {
			recognizer.Last().events.OnResult("quantas entregas faltam")

			Eventually(synthesizer.Spoken).Should(Equal([]string{"Você tem 3 entregas pendentes"}))
			Expect(synthesizer.Locales()).To(Equal([]string{"pt-BR"}))
			Eventually(engine.State).Should(Equal(Listening))
			Expect(log.Violations()).To(BeZero())
		})

		It("should stop listening on Stop", func() {
			assistant.Stop()
			Expect(engine.State()).To(Equal(Idle))
		})
	})
})
