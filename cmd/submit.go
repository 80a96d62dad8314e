/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/kgkhs001/BrighamWomensApp/internal/client"
	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/spf13/cobra"
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit <medicineRequest|medicalDevice|lostAndFound|sanitationRequest|langInterpreter|flowerRequest>",
	Short: "Submit a service request to a running server",
	Long: `Validate a request form locally and submit it to a running server.
The form is read as JSON from --data, or from stdin when --data is "-".
Validation errors are reported per field before anything is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requestType, ok := model.RequestTypeFromRoute(args[0])
		if !ok {
			return fmt.Errorf("unknown request type %q", args[0])
		}

		data, _ := cmd.Flags().GetString("data")
		payload := []byte(data)
		if data == "-" {
			var err error
			if payload, err = io.ReadAll(cmd.InOrStdin()); err != nil {
				return fmt.Errorf("failed to read form from stdin: %w", err)
			}
		}

		baseURL, _ := cmd.Flags().GetString("server")
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			token = os.Getenv("APP_TOKEN")
		}
		opts := []client.Option{}
		if token != "" {
			opts = append(opts, client.WithTokenSource(client.StaticToken(token)))
		}
		c := client.New(baseURL, opts...)

		out := cmd.OutOrStdout()
		if item, _ := cmd.Flags().GetString("check-stock"); item != "" {
			warning, err := c.CheckStock(cmd.Context(), item)
			switch {
			case err != nil:
				fmt.Fprintf(out, "stock check: %v\n", err)
			case warning.LowStock:
				fmt.Fprintln(out, warning.Message)
			default:
				fmt.Fprintf(out, "%s in stock: %d\n", item, warning.Quant)
			}
		}

		return submitForm(cmd.Context(), c, requestType, payload, out)
	},
}

// submitForm 按类型选择表单并运行表单会话
func submitForm(ctx context.Context, c *client.Client, requestType model.RequestType, payload []byte, out io.Writer) error {
	switch requestType {
	case model.TypeMedicine:
		return runSession[model.MedicineRequestModel](ctx, c, requestType,
			func() *form.MedicineForm { return &form.MedicineForm{} }, payload, out)
	case model.TypeMedicalDevice:
		return runSession[model.MedicalDeviceRequestModel](ctx, c, requestType,
			func() *form.MedicalDeviceForm { return &form.MedicalDeviceForm{} }, payload, out)
	case model.TypeLostAndFound:
		return runSession[model.LostAndFoundRequestModel](ctx, c, requestType,
			func() *form.LostAndFoundForm { return &form.LostAndFoundForm{} }, payload, out)
	case model.TypeSanitation:
		return runSession[model.SanitationRequestModel](ctx, c, requestType,
			func() *form.SanitationForm { return &form.SanitationForm{} }, payload, out)
	case model.TypeLangInterpreter:
		return runSession[model.LangInterpreterRequestModel](ctx, c, requestType,
			func() *form.LangInterpreterForm { return &form.LangInterpreterForm{} }, payload, out)
	case model.TypeFlower:
		return runSession[model.FlowerRequestModel](ctx, c, requestType,
			func() *form.FlowerForm { return &form.FlowerForm{} }, payload, out)
	}
	return fmt.Errorf("unsupported request type %q", requestType)
}

func runSession[D any, F form.Form[D]](
	ctx context.Context,
	c *client.Client,
	requestType model.RequestType,
	newForm func() F,
	payload []byte,
	out io.Writer,
) error {
	session := client.NewFormSession[D](c, requestType, newForm, nil)

	var decodeErr error
	if err := session.Edit(func(f F) { decodeErr = json.Unmarshal(payload, f) }); err != nil {
		return err
	}
	if decodeErr != nil {
		return fmt.Errorf("invalid form json: %w", decodeErr)
	}

	readBack, err := session.Submit(ctx)
	if err != nil {
		if verr := session.Errors(); verr != nil {
			for _, field := range verr.Fields {
				fmt.Fprintf(out, "  %s: %s\n", field.Field, field.Message)
			}
		}
		return err
	}

	echo, err := json.MarshalIndent(readBack.Form, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "submitted %s request #%d\n%s\n", strings.ToLower(string(requestType)), readBack.ID, echo)
	return session.Confirm()
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().String("server", "http://localhost:8080", "Server base URL")
	submitCmd.Flags().String("token", "", "Bearer token (default: $APP_TOKEN)")
	submitCmd.Flags().String("data", "-", `Form JSON, or "-" to read from stdin`)
	submitCmd.Flags().String("check-stock", "", "Inventory item to check before submitting")
}
